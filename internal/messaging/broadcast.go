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
	"creator-messaging/internal/observability"
	"creator-messaging/internal/repositories"
)

// BroadcastSender is the fan-out surface exposed to transport.
type BroadcastSender interface {
	Broadcast(ctx context.Context, creatorID int64, in BroadcastInput) (models.BroadcastResult, error)
}

// BroadcastInput is one fan-out request. Recipients are implicit: the
// creator's entire active subscriber base.
type BroadcastInput struct {
	Body      string
	Price     int64
	MediaKeys []string
	ExpiresIn string
}

// BroadcastCompletedEvent goes onto the event bus after a fan-out finishes.
type BroadcastCompletedEvent struct {
	CreatorID int64 `json:"creator_id"`
	Total     int   `json:"total_subscribers"`
	Succeeded int   `json:"successful_sends"`
	Failed    int   `json:"failed_sends"`
}

// Broadcaster fans one payload out to every active subscriber. Media is
// processed once; every recipient's media rows point at the same storage
// objects. Iteration is sequential to bound backend load, and one recipient's
// failure never aborts the batch.
type Broadcaster struct {
	subscriptions repositories.SubscriptionRepository
	orchestrator  *Orchestrator
	pipeline      MediaProcessor
}

// NewBroadcaster wires the fan-out engine.
func NewBroadcaster(subscriptions repositories.SubscriptionRepository, orchestrator *Orchestrator, pipeline MediaProcessor) *Broadcaster {
	return &Broadcaster{
		subscriptions: subscriptions,
		orchestrator:  orchestrator,
		pipeline:      pipeline,
	}
}

// Broadcast resolves the subscriber set, pre-processes media, then delivers
// per recipient. Once recipient iteration has started there is no
// whole-broadcast rollback: the compensation unit is the recipient.
func (b *Broadcaster) Broadcast(ctx context.Context, creatorID int64, in BroadcastInput) (models.BroadcastResult, error) {
	in.MediaKeys = wellFormedKeys(in.MediaKeys)
	if strings.TrimSpace(in.Body) == "" && len(in.MediaKeys) == 0 {
		return models.BroadcastResult{}, apperrors.InvalidArg("message body or media is required")
	}

	subscribers, err := b.subscriptions.ActiveSubscriberIDs(ctx, creatorID)
	if err != nil {
		return models.BroadcastResult{}, apperrors.Wrap(apperrors.CodeInternal, "could not resolve subscribers", err)
	}
	if len(subscribers) == 0 {
		return models.BroadcastResult{}, apperrors.FailedPrecondition("no active subscribers")
	}

	var processed media.Result
	if len(in.MediaKeys) > 0 {
		processed, err = b.pipeline.Process(ctx, in.MediaKeys, false)
		if err != nil {
			var procErr *media.ProcessError
			if errors.As(err, &procErr) && !procErr.Written.Empty() {
				b.pipeline.Cleanup(ctx, procErr.Written)
			}
			return models.BroadcastResult{}, apperrors.Wrap(apperrors.CodeUnavailable, "media processing failed", err)
		}
	}

	template := buildMessage(0, creatorID, SendInput{
		RecipientID: creatorID, // placeholder, replaced per recipient
		Body:        in.Body,
		Price:       in.Price,
		MediaKeys:   in.MediaKeys,
		ExpiresIn:   in.ExpiresIn,
	}, time.Now())

	result := models.BroadcastResult{Total: len(subscribers)}
	for _, subscriberID := range subscribers {
		created, mediaIDs, mediaErr, err := b.orchestrator.deliver(ctx, creatorID, subscriberID, template, processed)
		if err != nil {
			observability.IncBroadcastRecipient("failure")
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("recipient %d: %v", subscriberID, err))
			continue
		}

		observability.IncBroadcastRecipient("success")
		result.Succeeded++
		result.MessageIDs = append(result.MessageIDs, created.ID)
		result.MediaIDs = append(result.MediaIDs, mediaIDs...)
		if mediaErr != nil {
			// The recipient's message exists and is readable; the missing
			// attachment record is reported, not rolled back.
			result.Errors = append(result.Errors, fmt.Sprintf("recipient %d: %v", subscriberID, mediaErr))
		}
	}

	if result.Succeeded == 0 && !processed.Empty() {
		// Nobody references the shared objects; reclaim them.
		b.pipeline.Cleanup(ctx, processed)
	}

	if b.orchestrator.publisher != nil {
		event := BroadcastCompletedEvent{
			CreatorID: creatorID,
			Total:     result.Total,
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
		}
		if err := b.orchestrator.publisher.Publish(ctx, "messaging.broadcast.completed", event); err != nil {
			log.Printf("publish broadcast.completed failed: %v", err)
		}
	}

	return result, nil
}
