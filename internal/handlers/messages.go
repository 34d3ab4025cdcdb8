package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"creator-messaging/internal/messaging"
	"creator-messaging/internal/publicid"
	"creator-messaging/internal/telemetry"
)

// MessageHandler exposes the messaging pipeline over HTTP. All externally
// visible ids are public-id encoded; handlers decode before the pipeline ever
// sees them.
type MessageHandler struct {
	sender      messaging.Sender
	broadcaster messaging.BroadcastSender
	bookkeeper  messaging.Deleter
	ids         *publicid.Codec
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(sender messaging.Sender, broadcaster messaging.BroadcastSender, bookkeeper messaging.Deleter, ids *publicid.Codec, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		sender:      sender,
		broadcaster: broadcaster,
		bookkeeper:  bookkeeper,
		ids:         ids,
		audit:       audit,
	}
}

type sendRequest struct {
	RecipientID string   `json:"recipient_id" binding:"required"`
	Body        string   `json:"body"`
	Price       int64    `json:"price"`
	Media       []string `json:"media"`
	ExpiresIn   string   `json:"expires_in"`
}

// SendMessage delivers one direct message.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipientID, err := h.ids.Decode(req.RecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
		return
	}

	userID := userIDFromContext(c)
	out, err := h.sender.Send(c.Request.Context(), userID, messaging.SendInput{
		RecipientID: recipientID,
		Body:        req.Body,
		Price:       req.Price,
		MediaKeys:   req.Media,
		ExpiresIn:   req.ExpiresIn,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("message %d sent", out.MessageID),
		requestIDFromContext(c), auditUserID(c))

	c.JSON(http.StatusCreated, gin.H{
		"recipient_id": h.ids.Encode(out.RecipientID),
		"message_id":   h.ids.Encode(out.MessageID),
		"sender_id":    h.ids.Encode(out.SenderID),
		"body":         out.Body,
	})
}

type broadcastRequest struct {
	Body      string   `json:"body"`
	Price     int64    `json:"price"`
	Media     []string `json:"media"`
	ExpiresIn string   `json:"expires_in"`
}

// BroadcastMessage fans a message out to the caller's active subscribers.
func (h *MessageHandler) BroadcastMessage(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDFromContext(c)
	result, err := h.broadcaster.Broadcast(c.Request.Context(), userID, messaging.BroadcastInput{
		Body:      req.Body,
		Price:     req.Price,
		MediaKeys: req.Media,
		ExpiresIn: req.ExpiresIn,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("broadcast delivered to %d of %d subscribers", result.Succeeded, result.Total),
		requestIDFromContext(c), auditUserID(c))

	response := gin.H{
		"total_subscribers": result.Total,
		"successful_sends":  result.Succeeded,
		"failed_sends":      result.Failed,
		"message_ids":       h.ids.EncodeAll(result.MessageIDs),
		"media_ids":         h.ids.EncodeAll(result.MediaIDs),
	}
	if len(result.Errors) > 0 {
		response["errors"] = result.Errors
	}
	c.JSON(http.StatusOK, response)
}

// DeleteMessage soft-deletes one of the caller's own messages.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, err := h.ids.Decode(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := userIDFromContext(c)
	if err := h.bookkeeper.DeleteMessage(c.Request.Context(), userID, messageID); err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("message %d deleted", messageID),
		requestIDFromContext(c), auditUserID(c))

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// DeleteConversation soft-deletes everything between the caller and another user.
func (h *MessageHandler) DeleteConversation(c *gin.Context) {
	otherUserID, err := h.ids.Decode(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := userIDFromContext(c)
	stats, err := h.bookkeeper.DeleteConversation(c.Request.Context(), userID, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("conversation with user %d deleted", otherUserID),
		requestIDFromContext(c), auditUserID(c))

	conversationID := ""
	if stats.ConversationID != 0 {
		conversationID = h.ids.Encode(stats.ConversationID)
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted_messages_count": stats.DeletedMessages,
		"conversation_id":        conversationID,
		"cleared_notifications":  stats.ClearedNotifications,
	})
}
