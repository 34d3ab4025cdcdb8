package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"creator-messaging/internal/publicid"
	"creator-messaging/internal/repositories"
)

// ConversationHandler serves the store-and-query read side of the inbox.
type ConversationHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	ids           *publicid.Codec
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations repositories.ConversationRepository, messages repositories.MessageRepository, ids *publicid.Codec) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
		ids:           ids,
	}
}

// ListConversations returns the caller's active conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := userIDFromContext(c)

	summaries, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	type conversationResponse struct {
		ConversationID string     `json:"conversation_id"`
		OtherUserID    string     `json:"other_user_id"`
		LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
		CreatedAt      time.Time  `json:"created_at"`
	}

	responses := make([]conversationResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, conversationResponse{
			ConversationID: h.ids.Encode(summary.ConversationID),
			OtherUserID:    h.ids.Encode(summary.OtherUserID),
			LastMessageAt:  summary.LastMessageAt,
			CreatedAt:      summary.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": responses})
}

// GetConversationMessages returns the readable messages of one conversation.
// Deleted and expired messages are filtered out.
func (h *ConversationHandler) GetConversationMessages(c *gin.Context) {
	conversationID, err := h.ids.Decode(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := userIDFromContext(c)
	conv, err := h.conversations.Get(c.Request.Context(), conversationID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrConversationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "conversation not found"})
		return
	}
	if !conv.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return
	}

	msgs, err := h.messages.ListForConversation(c.Request.Context(), conversationID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	type messageResponse struct {
		MessageID string     `json:"message_id"`
		SenderID  string     `json:"sender_id"`
		Body      *string    `json:"body,omitempty"`
		Price     int64      `json:"price"`
		Format    string     `json:"format,omitempty"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
		Status    string     `json:"status"`
		CreatedAt time.Time  `json:"created_at"`
	}

	responses := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		responses = append(responses, messageResponse{
			MessageID: h.ids.Encode(m.ID),
			SenderID:  h.ids.Encode(m.SenderID),
			Body:      m.Body,
			Price:     m.Price,
			Format:    m.Format,
			ExpiresAt: m.ExpiresAt,
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": responses})
}
