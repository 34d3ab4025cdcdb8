package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"creator-messaging/internal/models"
)

// NotificationRepository defines interactions for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	DeleteByMessage(ctx context.Context, messageID int64) error
	DeleteForUserByMessages(ctx context.Context, userID int64, messageIDs []int64) (int64, error)
}

// NotificationRepo is a sqlx-backed repository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	var created models.Notification
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (user_id, actor_id, type_code, message_id, body)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, user_id, actor_id, type_code, message_id, body, read, created_at`,
		n.UserID, n.ActorID, n.TypeCode, n.MessageID, n.Body).
		StructScan(&created)
	return created, err
}

// DeleteByMessage removes every notification referencing the message.
func (r *NotificationRepo) DeleteByMessage(ctx context.Context, messageID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE message_id=$1`, messageID)
	return err
}

// DeleteForUserByMessages removes the user's notifications that reference any
// of the messages and reports how many were cleared.
func (r *NotificationRepo) DeleteForUserByMessages(ctx context.Context, userID int64, messageIDs []int64) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE user_id=$1 AND message_id = ANY($2)`,
		userID, pq.Array(messageIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
