package models

import "time"

// Notification is an inbox alert generated by the messaging pipeline and
// consumed by an external delivery layer.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ActorID   int64     `db:"actor_id" json:"actor_id"`
	TypeCode  int       `db:"type_code" json:"type_code"`
	MessageID *int64    `db:"message_id" json:"message_id,omitempty"`
	Body      string    `db:"body" json:"body"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
