package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"creator-messaging/internal/apperrors"
	"creator-messaging/internal/media"
	"creator-messaging/internal/models"
	"creator-messaging/internal/notifications"
	"creator-messaging/internal/observability"
	"creator-messaging/internal/rabbitmq"
	"creator-messaging/internal/repositories"
)

// MediaProcessor is the pipeline surface the orchestrator drives.
type MediaProcessor interface {
	Process(ctx context.Context, stagedKeys []string, continueOnError bool) (media.Result, error)
	Cleanup(ctx context.Context, res media.Result)
}

// Sender is the single-send surface exposed to transport.
type Sender interface {
	Send(ctx context.Context, senderID int64, in SendInput) (SendOutput, error)
}

// SendInput is one send attempt. MediaKeys reference staged uploads.
type SendInput struct {
	RecipientID int64
	Body        string
	Price       int64
	MediaKeys   []string
	ExpiresIn   string
}

// SendOutput echoes the committed send.
type SendOutput struct {
	MessageID   int64
	RecipientID int64
	SenderID    int64
	Body        string
}

// MessageSentEvent goes onto the event bus after a successful send.
type MessageSentEvent struct {
	MessageID   int64  `json:"message_id"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
	Broadcast   bool   `json:"broadcast"`
	Format      string `json:"format,omitempty"`
}

// Orchestrator runs the single-send saga: validate, resolve, persist message,
// process media, persist media rows. Each committed step registers a
// compensation; on failure the registered compensations run in reverse order.
type Orchestrator struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	mediaRows     repositories.MediaRepository
	notifs        repositories.NotificationRepository
	pipeline      MediaProcessor
	publisher     rabbitmq.Publisher
}

// NewOrchestrator wires the send saga.
func NewOrchestrator(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	mediaRows repositories.MediaRepository,
	notifs repositories.NotificationRepository,
	pipeline MediaProcessor,
	publisher rabbitmq.Publisher,
) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		messages:      messages,
		mediaRows:     mediaRows,
		notifs:        notifs,
		pipeline:      pipeline,
		publisher:     publisher,
	}
}

// Send delivers one direct message. On any failure after the message row
// exists, storage objects are cleaned up first and the message row deleted
// second, leaving zero trace of the attempt.
func (o *Orchestrator) Send(ctx context.Context, senderID int64, in SendInput) (SendOutput, error) {
	in.MediaKeys = wellFormedKeys(in.MediaKeys)
	if err := validateSend(senderID, in); err != nil {
		observability.IncSend("invalid")
		return SendOutput{}, err
	}

	var compensations []func(context.Context)
	fail := func(err error) (SendOutput, error) {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i](ctx)
		}
		if len(compensations) > 0 {
			observability.IncCompensation()
		}
		observability.IncSend("failure")
		return SendOutput{}, err
	}

	conv, err := o.conversations.Resolve(ctx, senderID, in.RecipientID)
	if err != nil {
		return fail(apperrors.Wrap(apperrors.CodeInternal, "could not resolve conversation", err))
	}

	msg, err := o.messages.Create(ctx, buildMessage(conv.ID, senderID, in, time.Now()))
	if err != nil {
		return fail(apperrors.Wrap(apperrors.CodeInternal, "could not store message", err))
	}
	compensations = append(compensations, func(ctx context.Context) {
		if err := o.messages.DeleteRow(ctx, msg.ID); err != nil {
			log.Printf("compensation: delete message %d failed: %v", msg.ID, err)
		}
	})

	if len(in.MediaKeys) > 0 {
		processed, err := o.pipeline.Process(ctx, in.MediaKeys, false)
		if err != nil {
			var procErr *media.ProcessError
			if errors.As(err, &procErr) && !procErr.Written.Empty() {
				written := procErr.Written
				compensations = append(compensations, func(ctx context.Context) {
					o.pipeline.Cleanup(ctx, written)
				})
			}
			return fail(apperrors.Wrap(apperrors.CodeUnavailable, "media processing failed", err))
		}
		compensations = append(compensations, func(ctx context.Context) {
			o.pipeline.Cleanup(ctx, processed)
		})

		if _, err := o.mediaRows.CreateBatch(ctx, msg.ID, attachmentsFor(processed)); err != nil {
			return fail(apperrors.Wrap(apperrors.CodeInternal, "could not store media", err))
		}
	}

	o.afterCommit(ctx, msg, false)
	observability.IncSend("success")

	return SendOutput{
		MessageID:   msg.ID,
		RecipientID: in.RecipientID,
		SenderID:    senderID,
		Body:        in.Body,
	}, nil
}

// afterCommit performs the non-compensated extras of a committed send:
// conversation activity, notification row, bus event. Failures here are
// logged, never propagated — the message already exists.
func (o *Orchestrator) afterCommit(ctx context.Context, msg models.Message, broadcast bool) {
	if err := o.conversations.Touch(ctx, msg.ConversationID, msg.CreatedAt); err != nil {
		log.Printf("touch conversation %d failed: %v", msg.ConversationID, err)
	}

	code := notifications.ForSend(msg.Price)
	if broadcast {
		code = notifications.TypeNewBroadcast
	}
	messageID := msg.ID
	_, err := o.notifs.Create(ctx, models.Notification{
		UserID:    msg.ReceiverID,
		ActorID:   msg.SenderID,
		TypeCode:  int(code),
		MessageID: &messageID,
		Body:      code.Body(msg.SenderID),
	})
	if err != nil {
		log.Printf("notification for message %d failed: %v", msg.ID, err)
	}

	if o.publisher != nil {
		event := MessageSentEvent{
			MessageID:   msg.ID,
			SenderID:    msg.SenderID,
			RecipientID: msg.ReceiverID,
			Broadcast:   broadcast,
			Format:      msg.Format,
		}
		if err := o.publisher.Publish(ctx, "messaging.message.sent", event); err != nil {
			log.Printf("publish message.sent for %d failed: %v", msg.ID, err)
		}
	}
}

// deliver runs the per-recipient portion of a send with already-processed
// media. Used by the broadcaster; recipients share storage objects, so no
// storage compensation happens here. A media-row failure is retried once and
// then reported separately from the message itself.
func (o *Orchestrator) deliver(ctx context.Context, senderID, recipientID int64, msg models.Message, processed media.Result) (models.Message, []int64, error, error) {
	conv, err := o.conversations.Resolve(ctx, senderID, recipientID)
	if err != nil {
		return models.Message{}, nil, nil, fmt.Errorf("resolve conversation: %w", err)
	}

	msg.ConversationID = conv.ID
	msg.SenderID = senderID
	msg.ReceiverID = recipientID
	created, err := o.messages.Create(ctx, msg)
	if err != nil {
		return models.Message{}, nil, nil, fmt.Errorf("store message: %w", err)
	}

	var mediaIDs []int64
	var mediaErr error
	if !processed.Empty() {
		rows, err := o.mediaRows.CreateBatch(ctx, created.ID, attachmentsFor(processed))
		if err != nil {
			// One immediate retry; abandoning the attachment record silently
			// is the worse outcome.
			rows, err = o.mediaRows.CreateBatch(ctx, created.ID, attachmentsFor(processed))
		}
		if err != nil {
			mediaErr = fmt.Errorf("store media rows: %w", err)
		}
		for _, row := range rows {
			mediaIDs = append(mediaIDs, row.ID)
		}
	}

	o.afterCommit(ctx, created, true)
	return created, mediaIDs, mediaErr, nil
}

func validateSend(senderID int64, in SendInput) error {
	if in.RecipientID <= 0 {
		return apperrors.InvalidArg("recipient is required")
	}
	if in.RecipientID == senderID {
		return apperrors.InvalidArg("cannot send a message to yourself")
	}
	if strings.TrimSpace(in.Body) == "" && len(in.MediaKeys) == 0 {
		return apperrors.InvalidArg("message body or media is required")
	}
	return nil
}

func buildMessage(conversationID, senderID int64, in SendInput, now time.Time) models.Message {
	price := in.Price
	if price < 0 {
		price = 0
	}

	var body *string
	if trimmed := strings.TrimSpace(in.Body); trimmed != "" {
		body = &in.Body
	}

	format := ""
	if len(in.MediaKeys) > 0 {
		format = media.ExtensionOf(in.MediaKeys[0])
	}

	return models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     in.RecipientID,
		Body:           body,
		Price:          price,
		Format:         format,
		ExpiresAt:      ExpiryFor(in.ExpiresIn, now),
		Status:         models.StatusSent,
	}
}

func attachmentsFor(processed media.Result) []models.MediaAttachment {
	items := make([]models.MediaAttachment, 0, len(processed.Items))
	for _, item := range processed.Items {
		attachment := models.MediaAttachment{
			StorageKey: item.OriginalKey,
			Kind:       item.Kind,
			Size:       item.Size,
		}
		if item.ConvertedKey != "" {
			converted := item.ConvertedKey
			attachment.ConvertedKey = &converted
		}
		items = append(items, attachment)
	}
	return items
}

// wellFormedKeys drops empty and whitespace-only entries. A list that filters
// down to nothing means "no media", not an error.
func wellFormedKeys(keys []string) []string {
	var out []string
	for _, key := range keys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
