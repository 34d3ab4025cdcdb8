package messaging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creator-messaging/internal/apperrors"
	"creator-messaging/internal/media"
	"creator-messaging/internal/messaging"
	"creator-messaging/internal/mocks"
	"creator-messaging/internal/models"
)

type broadcastFixture struct {
	*sendFixture
	subscriptions *mocks.SubscriptionRepositoryMock
	broadcaster   *messaging.Broadcaster
}

func newBroadcastFixture() *broadcastFixture {
	f := &broadcastFixture{
		sendFixture:   newSendFixture(),
		subscriptions: new(mocks.SubscriptionRepositoryMock),
	}
	f.broadcaster = messaging.NewBroadcaster(f.subscriptions, f.orchestrator, f.pipeline)
	return f
}

// expectDelivery wires the happy path for one recipient of creator 7.
func (f *broadcastFixture) expectDelivery(recipientID, conversationID, messageID int64) {
	f.conversations.On("Resolve", mock.Anything, int64(7), recipientID).
		Return(models.Conversation{ID: conversationID}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ReceiverID == recipientID && m.ConversationID == conversationID
	})).Return(models.Message{ID: messageID, ConversationID: conversationID, SenderID: 7, ReceiverID: recipientID}, nil).Once()
	f.conversations.On("Touch", mock.Anything, conversationID, mock.Anything).Return(nil).Once()
	f.notifs.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == recipientID
	})).Return(models.Notification{}, nil).Once()
}

func TestBroadcastRequiresBodyOrMedia(t *testing.T) {
	f := newBroadcastFixture()

	_, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))

	f.subscriptions.AssertNotCalled(t, "ActiveSubscriberIDs", mock.Anything, mock.Anything)
}

func TestBroadcastNoActiveSubscribers(t *testing.T) {
	f := newBroadcastFixture()

	f.subscriptions.On("ActiveSubscriberIDs", mock.Anything, int64(7)).
		Return([]int64{}, nil).Once()

	_, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{Body: "new post"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))

	f.pipeline.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBroadcastOneFailureDoesNotAbortTheBatch(t *testing.T) {
	f := newBroadcastFixture()

	f.subscriptions.On("ActiveSubscriberIDs", mock.Anything, int64(7)).
		Return([]int64{101, 102, 103}, nil).Once()

	f.expectDelivery(101, 1, 11)
	f.expectDelivery(103, 3, 13)

	f.conversations.On("Resolve", mock.Anything, int64(7), int64(102)).
		Return(models.Conversation{ID: 2}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ReceiverID == 102
	})).Return(models.Message{}, assert.AnError).Once()

	result, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{Body: "new post"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []int64{11, 13}, result.MessageIDs)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "recipient 102")

	f.conversations.AssertExpectations(t)
	f.messages.AssertExpectations(t)
	f.notifs.AssertExpectations(t)
}

func TestBroadcastProcessesMediaExactlyOnce(t *testing.T) {
	f := newBroadcastFixture()

	processed := media.Result{Items: []media.Item{
		{OriginalKey: "media/promo.png", ConvertedKey: "media/promo_converted.jpg", Kind: models.MediaKindImage, Size: 512},
	}}

	f.subscriptions.On("ActiveSubscriberIDs", mock.Anything, int64(7)).
		Return([]int64{101, 102}, nil).Once()
	f.pipeline.On("Process", mock.Anything, []string{"staging/promo.png"}, false).
		Return(processed, nil).Once()

	f.expectDelivery(101, 1, 11)
	f.expectDelivery(102, 2, 12)
	f.mediaRows.On("CreateBatch", mock.Anything, int64(11), mock.Anything).
		Return([]models.MediaAttachment{{ID: 21, MessageID: 11}}, nil).Once()
	f.mediaRows.On("CreateBatch", mock.Anything, int64(12), mock.Anything).
		Return([]models.MediaAttachment{{ID: 22, MessageID: 12}}, nil).Once()

	result, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{
		MediaKeys: []string{"staging/promo.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, []int64{21, 22}, result.MediaIDs)

	f.pipeline.AssertNumberOfCalls(t, "Process", 1)
	f.pipeline.AssertNotCalled(t, "Cleanup", mock.Anything, mock.Anything)
	f.mediaRows.AssertExpectations(t)
}

func TestBroadcastMediaRowFailureStillCountsRecipient(t *testing.T) {
	f := newBroadcastFixture()

	processed := media.Result{Items: []media.Item{
		{OriginalKey: "media/promo.png", Kind: models.MediaKindImage, Size: 512},
	}}

	f.subscriptions.On("ActiveSubscriberIDs", mock.Anything, int64(7)).
		Return([]int64{101}, nil).Once()
	f.pipeline.On("Process", mock.Anything, mock.Anything, false).
		Return(processed, nil).Once()

	f.expectDelivery(101, 1, 11)
	// First attempt and the single retry both fail.
	f.mediaRows.On("CreateBatch", mock.Anything, int64(11), mock.Anything).
		Return(([]models.MediaAttachment)(nil), assert.AnError).Twice()

	result, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{
		MediaKeys: []string{"staging/promo.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []int64{11}, result.MessageIDs)
	assert.Empty(t, result.MediaIDs)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "recipient 101")

	// The message row survives, so the shared objects stay.
	f.pipeline.AssertNotCalled(t, "Cleanup", mock.Anything, mock.Anything)
	f.mediaRows.AssertExpectations(t)
}

func TestBroadcastCleansSharedMediaWhenEveryRecipientFails(t *testing.T) {
	f := newBroadcastFixture()

	processed := media.Result{Items: []media.Item{
		{OriginalKey: "media/promo.png", Kind: models.MediaKindImage, Size: 512},
	}}

	f.subscriptions.On("ActiveSubscriberIDs", mock.Anything, int64(7)).
		Return([]int64{101, 102}, nil).Once()
	f.pipeline.On("Process", mock.Anything, mock.Anything, false).
		Return(processed, nil).Once()
	f.conversations.On("Resolve", mock.Anything, int64(7), mock.Anything).
		Return(models.Conversation{}, assert.AnError).Twice()
	f.pipeline.On("Cleanup", mock.Anything, processed).Once()

	result, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{
		MediaKeys: []string{"staging/promo.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	f.pipeline.AssertExpectations(t)
}

func TestBroadcastAbortsWhenMediaProcessingFails(t *testing.T) {
	f := newBroadcastFixture()

	written := media.Result{Items: []media.Item{
		{OriginalKey: "media/promo.png", Kind: models.MediaKindImage, Size: 512},
	}}
	procErr := &media.ProcessError{Key: "staging/bad.xyz", Written: written, Err: assert.AnError}

	f.subscriptions.On("ActiveSubscriberIDs", mock.Anything, int64(7)).
		Return([]int64{101}, nil).Once()
	f.pipeline.On("Process", mock.Anything, mock.Anything, false).
		Return(media.Result{}, procErr).Once()
	f.pipeline.On("Cleanup", mock.Anything, written).Once()

	_, err := f.broadcaster.Broadcast(context.Background(), 7, messaging.BroadcastInput{
		MediaKeys: []string{"staging/promo.png", "staging/bad.xyz"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.CodeOf(err))

	f.conversations.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.pipeline.AssertExpectations(t)
}
