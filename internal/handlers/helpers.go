package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"creator-messaging/internal/apperrors"
	"creator-messaging/internal/middleware"
	"creator-messaging/internal/observability"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) int64 {
	if val, ok := c.Get(middleware.UserIDKey); ok {
		switch userID := val.(type) {
		case int64:
			return userID
		case int:
			return int64(userID)
		}
	}
	return 0
}

func auditUserID(c *gin.Context) *int64 {
	if id := userIDFromContext(c); id != 0 {
		return &id
	}
	return nil
}

// respondError maps a pipeline error onto the transport.
func respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	c.JSON(apperrors.HTTPStatus(code), gin.H{"error": apperrors.MessageOf(err)})
}
