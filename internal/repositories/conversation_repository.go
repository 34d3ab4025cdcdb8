package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"creator-messaging/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	Resolve(ctx context.Context, userA, userB int64) (models.Conversation, error)
	Get(ctx context.Context, conversationID int64) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	Touch(ctx context.Context, conversationID int64, at time.Time) error
	Deactivate(ctx context.Context, conversationID int64) error
	IDsForPair(ctx context.Context, userA, userB int64) ([]int64, error)
	DeactivateMany(ctx context.Context, conversationIDs []int64) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, user_a, user_b, active, room_key, last_message_at, created_at`

// Resolve finds the active conversation for the pair or creates one. The
// partial unique index on the canonical pair makes this race-free: a
// concurrent insert surfaces as a unique violation and the winner's row is
// selected instead.
func (r *ConversationRepo) Resolve(ctx context.Context, userA, userB int64) (models.Conversation, error) {
	if userA > userB {
		userA, userB = userB, userA
	}

	conv, err := r.findActivePair(ctx, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	roomKey := "room-" + uuid.NewString()
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO conversations (user_a, user_b, room_key) VALUES ($1, $2, $3) RETURNING `+conversationColumns,
		userA, userB, roomKey).StructScan(&conv)
	if err == nil {
		return conv, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return r.findActivePair(ctx, userA, userB)
	}
	return models.Conversation{}, err
}

func (r *ConversationRepo) findActivePair(ctx context.Context, userA, userB int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations
         WHERE active AND LEAST(user_a, user_b)=$1 AND GREATEST(user_a, user_b)=$2`,
		userA, userB)
	return conv, err
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns the user's active conversations, most recent first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations
         WHERE active AND (user_a=$1 OR user_b=$1)
         ORDER BY COALESCE(last_message_at, created_at) DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ConversationSummary
	for rows.Next() {
		var conv models.Conversation
		if err := rows.StructScan(&conv); err != nil {
			return nil, err
		}
		result = append(result, models.ConversationSummary{
			ConversationID: conv.ID,
			OtherUserID:    conv.Other(userID),
			LastMessageAt:  conv.LastMessageAt,
			CreatedAt:      conv.CreatedAt,
		})
	}
	return result, rows.Err()
}

// Touch updates the conversation's last-activity timestamp.
func (r *ConversationRepo) Touch(ctx context.Context, conversationID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_at=$2 WHERE id=$1`, conversationID, at)
	return err
}

// Deactivate marks a conversation inactive. The row is never removed.
func (r *ConversationRepo) Deactivate(ctx context.Context, conversationID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET active=FALSE WHERE id=$1`, conversationID)
	return err
}

// IDsForPair returns every conversation id for the unordered pair, active or not.
func (r *ConversationRepo) IDsForPair(ctx context.Context, userA, userB int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM conversations
         WHERE LEAST(user_a, user_b)=LEAST($1::bigint, $2::bigint)
           AND GREATEST(user_a, user_b)=GREATEST($1::bigint, $2::bigint)
         ORDER BY id`, userA, userB)
	return ids, err
}

// DeactivateMany marks the given conversations inactive.
func (r *ConversationRepo) DeactivateMany(ctx context.Context, conversationIDs []int64) error {
	if len(conversationIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET active=FALSE WHERE id = ANY($1)`, pq.Array(conversationIDs))
	return err
}
