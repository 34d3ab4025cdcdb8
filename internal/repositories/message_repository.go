package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"creator-messaging/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	Get(ctx context.Context, messageID int64) (models.Message, error)
	// DeleteRow physically removes a message. Used only by send compensation,
	// before the message was ever visible.
	DeleteRow(ctx context.Context, messageID int64) error
	MarkDeleted(ctx context.Context, messageID int64) error
	ListForConversation(ctx context.Context, conversationID int64, now time.Time) ([]models.Message, error)
	CountActive(ctx context.Context, conversationID int64) (int, error)
	LatestActiveAt(ctx context.Context, conversationID int64) (time.Time, error)
	IDsByConversations(ctx context.Context, conversationIDs []int64) ([]int64, error)
	MarkDeletedByConversations(ctx context.Context, conversationIDs []int64) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, receiver_id, body, price, format, expires_at, status, deleted, created_at`

// Create stores a message row.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, receiver_id, body, price, format, expires_at, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+messageColumns,
		msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Body, msg.Price, msg.Format, msg.ExpiresAt, msg.Status).
		StructScan(&created)
	return created, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteRow removes the message row entirely.
func (r *MessageRepo) DeleteRow(ctx context.Context, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	return err
}

// MarkDeleted soft-deletes a message.
func (r *MessageRepo) MarkDeleted(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted=TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ListForConversation returns non-deleted, non-expired messages in order.
func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64, now time.Time) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1 AND deleted=FALSE
           AND (expires_at IS NULL OR expires_at > $2)
         ORDER BY created_at ASC`, conversationID, now)
	return msgs, err
}

// CountActive counts the conversation's non-deleted messages.
func (r *MessageRepo) CountActive(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE conversation_id=$1 AND deleted=FALSE`, conversationID)
	return count, err
}

// LatestActiveAt returns the creation time of the newest non-deleted message.
func (r *MessageRepo) LatestActiveAt(ctx context.Context, conversationID int64) (time.Time, error) {
	var at time.Time
	err := r.db.GetContext(ctx, &at,
		`SELECT created_at FROM messages
         WHERE conversation_id=$1 AND deleted=FALSE
         ORDER BY created_at DESC LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrMessageNotFound
	}
	return at, err
}

// IDsByConversations returns all message ids belonging to the conversations.
func (r *MessageRepo) IDsByConversations(ctx context.Context, conversationIDs []int64) ([]int64, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM messages WHERE conversation_id = ANY($1) ORDER BY id`,
		pq.Array(conversationIDs))
	return ids, err
}

// MarkDeletedByConversations soft-deletes every live message in the
// conversations and reports how many were affected.
func (r *MessageRepo) MarkDeletedByConversations(ctx context.Context, conversationIDs []int64) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted=TRUE WHERE conversation_id = ANY($1) AND deleted=FALSE`,
		pq.Array(conversationIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
