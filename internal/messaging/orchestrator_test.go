package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creator-messaging/internal/apperrors"
	"creator-messaging/internal/media"
	"creator-messaging/internal/messaging"
	"creator-messaging/internal/mocks"
	"creator-messaging/internal/models"
)

type sendFixture struct {
	conversations *mocks.ConversationRepositoryMock
	messages      *mocks.MessageRepositoryMock
	mediaRows     *mocks.MediaRepositoryMock
	notifs        *mocks.NotificationRepositoryMock
	pipeline      *mocks.MediaProcessorMock
	orchestrator  *messaging.Orchestrator
}

func newSendFixture() *sendFixture {
	f := &sendFixture{
		conversations: new(mocks.ConversationRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		mediaRows:     new(mocks.MediaRepositoryMock),
		notifs:        new(mocks.NotificationRepositoryMock),
		pipeline:      new(mocks.MediaProcessorMock),
	}
	f.orchestrator = messaging.NewOrchestrator(f.conversations, f.messages, f.mediaRows, f.notifs, f.pipeline, nil)
	return f
}

func (f *sendFixture) expectAfterCommit(conversationID int64) {
	f.conversations.On("Touch", mock.Anything, conversationID, mock.Anything).Return(nil).Once()
	f.notifs.On("Create", mock.Anything, mock.Anything).Return(models.Notification{}, nil).Once()
}

func TestSendTextOnly(t *testing.T) {
	f := newSendFixture()

	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3, UserA: 7, UserB: 42, Active: true}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).
		Return(models.Message{ID: 11, ConversationID: 3, SenderID: 7, ReceiverID: 42, CreatedAt: time.Now()}, nil).Once()
	f.expectAfterCommit(3)

	out, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{RecipientID: 42, Body: "hi"})
	require.NoError(t, err)

	assert.Equal(t, int64(11), out.MessageID)
	assert.Equal(t, int64(42), out.RecipientID)
	assert.Equal(t, int64(7), out.SenderID)
	assert.Equal(t, "hi", out.Body)

	f.pipeline.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
	f.mediaRows.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything, mock.Anything)
	f.conversations.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestSendSelfRejectedBeforeAnyPersistence(t *testing.T) {
	f := newSendFixture()

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{RecipientID: 7, Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))

	f.conversations.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendRequiresBodyOrMedia(t *testing.T) {
	f := newSendFixture()

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{RecipientID: 42})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))
}

func TestSendBlankMediaKeysMeanNoMedia(t *testing.T) {
	f := newSendFixture()

	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Format == ""
	})).Return(models.Message{ID: 11, ConversationID: 3, SenderID: 7, ReceiverID: 42}, nil).Once()
	f.expectAfterCommit(3)

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{
		RecipientID: 42,
		Body:        "hi",
		MediaKeys:   []string{"", "   "},
	})
	require.NoError(t, err)

	f.pipeline.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendNormalizesNegativePrice(t *testing.T) {
	f := newSendFixture()

	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Price == 0
	})).Return(models.Message{ID: 11, ConversationID: 3, SenderID: 7, ReceiverID: 42}, nil).Once()
	f.expectAfterCommit(3)

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{
		RecipientID: 42,
		Body:        "hi",
		Price:       -500,
	})
	require.NoError(t, err)
	f.messages.AssertExpectations(t)
}

func TestSendWithMediaSuccess(t *testing.T) {
	f := newSendFixture()

	processed := media.Result{Items: []media.Item{
		{OriginalKey: "media/pic.png", ConvertedKey: "media/pic_converted.jpg", Kind: models.MediaKindImage, Size: 128},
	}}

	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Format == "png"
	})).Return(models.Message{ID: 11, ConversationID: 3, SenderID: 7, ReceiverID: 42}, nil).Once()
	f.pipeline.On("Process", mock.Anything, []string{"staging/pic.png"}, false).
		Return(processed, nil).Once()
	f.mediaRows.On("CreateBatch", mock.Anything, int64(11), mock.Anything).
		Return([]models.MediaAttachment{{ID: 21, MessageID: 11}}, nil).Once()
	f.expectAfterCommit(3)

	out, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{
		RecipientID: 42,
		MediaKeys:   []string{"staging/pic.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), out.MessageID)

	f.pipeline.AssertNotCalled(t, "Cleanup", mock.Anything, mock.Anything)
	f.pipeline.AssertExpectations(t)
	f.mediaRows.AssertExpectations(t)
}

func TestSendMediaProcessingFailureRollsBack(t *testing.T) {
	f := newSendFixture()

	written := media.Result{Items: []media.Item{
		{OriginalKey: "media/pic.png", Kind: models.MediaKindImage, Size: 128},
	}}
	procErr := &media.ProcessError{Key: "staging/bad.png", Written: written, Err: assert.AnError}

	var order []string
	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).
		Return(models.Message{ID: 11, ConversationID: 3, SenderID: 7, ReceiverID: 42}, nil).Once()
	f.pipeline.On("Process", mock.Anything, mock.Anything, false).
		Return(media.Result{}, procErr).Once()
	f.pipeline.On("Cleanup", mock.Anything, written).
		Run(func(mock.Arguments) { order = append(order, "cleanup_storage") }).Once()
	f.messages.On("DeleteRow", mock.Anything, int64(11)).
		Run(func(mock.Arguments) { order = append(order, "delete_message") }).
		Return(nil).Once()

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{
		RecipientID: 42,
		MediaKeys:   []string{"staging/pic.png", "staging/bad.png"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.CodeOf(err))

	// Storage cleanup must run before the message row is removed.
	assert.Equal(t, []string{"cleanup_storage", "delete_message"}, order)
	f.conversations.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
	f.notifs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.pipeline.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestSendMediaRowFailureRollsBack(t *testing.T) {
	f := newSendFixture()

	processed := media.Result{Items: []media.Item{
		{OriginalKey: "media/clip.mp4", Kind: models.MediaKindVideo, Size: 2048},
	}}

	var order []string
	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).
		Return(models.Message{ID: 11, ConversationID: 3, SenderID: 7, ReceiverID: 42}, nil).Once()
	f.pipeline.On("Process", mock.Anything, mock.Anything, false).
		Return(processed, nil).Once()
	f.mediaRows.On("CreateBatch", mock.Anything, int64(11), mock.Anything).
		Return(([]models.MediaAttachment)(nil), assert.AnError).Once()
	f.pipeline.On("Cleanup", mock.Anything, processed).
		Run(func(mock.Arguments) { order = append(order, "cleanup_storage") }).Once()
	f.messages.On("DeleteRow", mock.Anything, int64(11)).
		Run(func(mock.Arguments) { order = append(order, "delete_message") }).
		Return(nil).Once()

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{
		RecipientID: 42,
		MediaKeys:   []string{"staging/clip.mp4"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
	assert.Equal(t, []string{"cleanup_storage", "delete_message"}, order)

	f.pipeline.AssertExpectations(t)
	f.messages.AssertExpectations(t)
	f.mediaRows.AssertExpectations(t)
}

func TestSendMessagePersistFailureLeavesNoTrace(t *testing.T) {
	f := newSendFixture()

	f.conversations.On("Resolve", mock.Anything, int64(7), int64(42)).
		Return(models.Conversation{ID: 3}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).
		Return(models.Message{}, assert.AnError).Once()

	_, err := f.orchestrator.Send(context.Background(), 7, messaging.SendInput{RecipientID: 42, Body: "hi"})
	require.Error(t, err)

	f.messages.AssertNotCalled(t, "DeleteRow", mock.Anything, mock.Anything)
	f.pipeline.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
	f.pipeline.AssertNotCalled(t, "Cleanup", mock.Anything, mock.Anything)
}
