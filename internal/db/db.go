package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the database connection and applies migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

func runMigrations(database *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
            id BIGSERIAL PRIMARY KEY,
            user_a BIGINT NOT NULL,
            user_b BIGINT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT TRUE,
            room_key TEXT NOT NULL,
            last_message_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		// One active conversation per unordered user pair. The insert path
		// relies on this index: a unique violation means another caller won
		// the race and the existing row is used instead.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_pair
            ON conversations (LEAST(user_a, user_b), GREATEST(user_a, user_b))
            WHERE active;`,
		`CREATE TABLE IF NOT EXISTS messages (
            id BIGSERIAL PRIMARY KEY,
            conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_id BIGINT NOT NULL,
            receiver_id BIGINT NOT NULL,
            body TEXT,
            price BIGINT NOT NULL DEFAULT 0,
            format TEXT NOT NULL DEFAULT '',
            expires_at TIMESTAMPTZ,
            status TEXT NOT NULL DEFAULT 'sent',
            deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS message_media (
            id BIGSERIAL PRIMARY KEY,
            message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            storage_key TEXT NOT NULL,
            converted_key TEXT,
            kind TEXT NOT NULL,
            size BIGINT NOT NULL DEFAULT 0,
            deleted BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS plans (
            id BIGSERIAL PRIMARY KEY,
            creator_id BIGINT NOT NULL,
            name TEXT NOT NULL,
            enabled BOOLEAN NOT NULL DEFAULT TRUE,
            price_cents BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
            id BIGSERIAL PRIMARY KEY,
            subscriber_id BIGINT NOT NULL,
            creator_id BIGINT NOT NULL,
            plan_id BIGINT NOT NULL REFERENCES plans(id),
            cancelled BOOLEAN NOT NULL DEFAULT FALSE,
            expires_at TIMESTAMPTZ,
            free_grant BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_creator ON subscriptions (creator_id);`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL,
            actor_id BIGINT NOT NULL,
            type_code INT NOT NULL,
            message_id BIGINT,
            body TEXT NOT NULL,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at);`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
