package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"creator-messaging/internal/models"
)

// MediaRepository defines interactions for message media rows.
type MediaRepository interface {
	CreateBatch(ctx context.Context, messageID int64, items []models.MediaAttachment) ([]models.MediaAttachment, error)
	ListForMessage(ctx context.Context, messageID int64) ([]models.MediaAttachment, error)
	MarkDeletedByMessage(ctx context.Context, messageID int64) error
	MarkDeletedByConversations(ctx context.Context, conversationIDs []int64) (int64, error)
}

// MediaRepo is a sqlx-backed repository.
type MediaRepo struct {
	db *sqlx.DB
}

// NewMediaRepo constructs MediaRepo.
func NewMediaRepo(db *sqlx.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

const mediaColumns = `id, message_id, storage_key, converted_key, kind, size, deleted, created_at`

// CreateBatch inserts media rows for a message and returns them with ids.
func (r *MediaRepo) CreateBatch(ctx context.Context, messageID int64, items []models.MediaAttachment) ([]models.MediaAttachment, error) {
	created := make([]models.MediaAttachment, 0, len(items))
	for _, item := range items {
		var row models.MediaAttachment
		err := r.db.QueryRowxContext(ctx,
			`INSERT INTO message_media (message_id, storage_key, converted_key, kind, size)
             VALUES ($1, $2, $3, $4, $5) RETURNING `+mediaColumns,
			messageID, item.StorageKey, item.ConvertedKey, item.Kind, item.Size).
			StructScan(&row)
		if err != nil {
			return created, err
		}
		created = append(created, row)
	}
	return created, nil
}

// ListForMessage returns the live attachments of a message.
func (r *MediaRepo) ListForMessage(ctx context.Context, messageID int64) ([]models.MediaAttachment, error) {
	var items []models.MediaAttachment
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+mediaColumns+` FROM message_media WHERE message_id=$1 AND deleted=FALSE ORDER BY id`,
		messageID)
	return items, err
}

// MarkDeletedByMessage soft-deletes all attachments of a message.
func (r *MediaRepo) MarkDeletedByMessage(ctx context.Context, messageID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE message_media SET deleted=TRUE WHERE message_id=$1`, messageID)
	return err
}

// MarkDeletedByConversations soft-deletes attachments for every message in the
// conversations.
func (r *MediaRepo) MarkDeletedByConversations(ctx context.Context, conversationIDs []int64) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE message_media SET deleted=TRUE
         WHERE deleted=FALSE AND message_id IN (SELECT id FROM messages WHERE conversation_id = ANY($1))`,
		pq.Array(conversationIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
