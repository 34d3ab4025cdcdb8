package messaging

import (
	"context"
	"errors"

	"creator-messaging/internal/apperrors"
	"creator-messaging/internal/repositories"
)

// Deleter is the deletion surface exposed to transport.
type Deleter interface {
	DeleteMessage(ctx context.Context, callerID, messageID int64) error
	DeleteConversation(ctx context.Context, callerID, otherUserID int64) (ConversationDeleteStats, error)
}

// ConversationDeleteStats reports what a pairwise delete touched.
type ConversationDeleteStats struct {
	ConversationID       int64
	DeletedMessages      int64
	ClearedNotifications int64
}

// Bookkeeper soft-deletes messages and conversations and keeps the derived
// conversation state consistent. All marks are idempotent, so a partial
// failure is surfaced for retry instead of compensated.
type Bookkeeper struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	mediaRows     repositories.MediaRepository
	notifs        repositories.NotificationRepository
}

// NewBookkeeper wires the deletion bookkeeper.
func NewBookkeeper(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	mediaRows repositories.MediaRepository,
	notifs repositories.NotificationRepository,
) *Bookkeeper {
	return &Bookkeeper{
		conversations: conversations,
		messages:      messages,
		mediaRows:     mediaRows,
		notifs:        notifs,
	}
}

// DeleteMessage soft-deletes one message with its media and notifications,
// then recomputes the conversation's activity state. Only the sender may
// delete.
func (b *Bookkeeper) DeleteMessage(ctx context.Context, callerID, messageID int64) error {
	msg, err := b.messages.Get(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return apperrors.NotFound("message not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "could not load message", err)
	}
	if msg.SenderID != callerID {
		return apperrors.Forbidden("only the sender can delete a message")
	}
	if msg.Deleted {
		return nil
	}

	if err := b.messages.MarkDeleted(ctx, messageID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "could not delete message", err)
	}
	if err := b.mediaRows.MarkDeletedByMessage(ctx, messageID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "could not delete message media", err)
	}
	if err := b.notifs.DeleteByMessage(ctx, messageID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "could not clear notifications", err)
	}

	return b.recomputeConversation(ctx, msg.ConversationID)
}

// recomputeConversation derives the conversation state from its remaining
// live messages: none left deactivates it, otherwise the activity timestamp
// tracks the newest survivor.
func (b *Bookkeeper) recomputeConversation(ctx context.Context, conversationID int64) error {
	count, err := b.messages.CountActive(ctx, conversationID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "could not recompute conversation", err)
	}

	if count == 0 {
		if err := b.conversations.Deactivate(ctx, conversationID); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "could not deactivate conversation", err)
		}
		return nil
	}

	newest, err := b.messages.LatestActiveAt(ctx, conversationID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "could not recompute conversation", err)
	}
	if err := b.conversations.Touch(ctx, conversationID, newest); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "could not update conversation", err)
	}
	return nil
}

// DeleteConversation soft-deletes everything between the caller and the other
// user: media, messages, conversations, and the caller's related
// notifications, as one logical unit. No matching rows is a successful no-op.
func (b *Bookkeeper) DeleteConversation(ctx context.Context, callerID, otherUserID int64) (ConversationDeleteStats, error) {
	if callerID == otherUserID {
		return ConversationDeleteStats{}, apperrors.InvalidArg("cannot delete a conversation with yourself")
	}

	conversationIDs, err := b.conversations.IDsForPair(ctx, callerID, otherUserID)
	if err != nil {
		return ConversationDeleteStats{}, apperrors.Wrap(apperrors.CodeInternal, "could not resolve conversations", err)
	}
	if len(conversationIDs) == 0 {
		return ConversationDeleteStats{}, nil
	}

	messageIDs, err := b.messages.IDsByConversations(ctx, conversationIDs)
	if err != nil {
		return ConversationDeleteStats{}, apperrors.Wrap(apperrors.CodeInternal, "could not resolve messages", err)
	}

	if _, err := b.mediaRows.MarkDeletedByConversations(ctx, conversationIDs); err != nil {
		return ConversationDeleteStats{}, apperrors.Wrap(apperrors.CodeInternal, "conversation delete incomplete, retry", err)
	}
	deletedMessages, err := b.messages.MarkDeletedByConversations(ctx, conversationIDs)
	if err != nil {
		return ConversationDeleteStats{}, apperrors.Wrap(apperrors.CodeInternal, "conversation delete incomplete, retry", err)
	}
	if err := b.conversations.DeactivateMany(ctx, conversationIDs); err != nil {
		return ConversationDeleteStats{}, apperrors.Wrap(apperrors.CodeInternal, "conversation delete incomplete, retry", err)
	}
	cleared, err := b.notifs.DeleteForUserByMessages(ctx, callerID, messageIDs)
	if err != nil {
		return ConversationDeleteStats{}, apperrors.Wrap(apperrors.CodeInternal, "conversation delete incomplete, retry", err)
	}

	return ConversationDeleteStats{
		ConversationID:       conversationIDs[0],
		DeletedMessages:      deletedMessages,
		ClearedNotifications: cleared,
	}, nil
}
