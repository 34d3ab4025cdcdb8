package models

import "time"

// Conversation is the durable pairing record between two users. The pair is
// stored in canonical order (user_a <= user_b); a partial unique index keeps
// at most one active row per pair.
type Conversation struct {
	ID            int64      `db:"id" json:"id"`
	UserA         int64      `db:"user_a" json:"user_a"`
	UserB         int64      `db:"user_b" json:"user_b"`
	Active        bool       `db:"active" json:"active"`
	RoomKey       string     `db:"room_key" json:"room_key"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID int64) int64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// HasParticipant reports whether userID belongs to the conversation.
func (c Conversation) HasParticipant(userID int64) bool {
	return c.UserA == userID || c.UserB == userID
}

// ConversationSummary is the API-friendly view of a conversation for one user.
type ConversationSummary struct {
	ConversationID int64      `json:"conversation_id"`
	OtherUserID    int64      `json:"other_user_id"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
