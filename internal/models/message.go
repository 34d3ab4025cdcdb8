package models

import "time"

// Message statuses. A message is created as StatusSent and flips to StatusNew
// once the receiver's inbox has surfaced it.
const (
	StatusSent = "sent"
	StatusNew  = "new"
)

// Message is one unit of communication inside a conversation. Body is nil for
// media-only messages. Price is in cents; zero means free.
type Message struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID int64      `db:"conversation_id" json:"conversation_id"`
	SenderID       int64      `db:"sender_id" json:"sender_id"`
	ReceiverID     int64      `db:"receiver_id" json:"receiver_id"`
	Body           *string    `db:"body" json:"body,omitempty"`
	Price          int64      `db:"price" json:"price"`
	Format         string     `db:"format" json:"format"`
	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	Status         string     `db:"status" json:"status"`
	Deleted        bool       `db:"deleted" json:"deleted"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Expired reports whether the message's self-expiry has passed.
func (m Message) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}
