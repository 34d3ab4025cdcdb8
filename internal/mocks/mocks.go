package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"creator-messaging/internal/media"
	"creator-messaging/internal/messaging"
	"creator-messaging/internal/models"
	"creator-messaging/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) Resolve(ctx context.Context, userA, userB int64) (models.Conversation, error) {
	args := m.Called(ctx, userA, userB)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID int64) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) Touch(ctx context.Context, conversationID int64, at time.Time) error {
	args := m.Called(ctx, conversationID, at)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) Deactivate(ctx context.Context, conversationID int64) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) IDsForPair(ctx context.Context, userA, userB int64) ([]int64, error) {
	args := m.Called(ctx, userA, userB)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *ConversationRepositoryMock) DeactivateMany(ctx context.Context, conversationIDs []int64) error {
	args := m.Called(ctx, conversationIDs)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteRow(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkDeleted(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListForConversation(ctx context.Context, conversationID int64, now time.Time) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, now)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountActive(ctx context.Context, conversationID int64) (int, error) {
	args := m.Called(ctx, conversationID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) LatestActiveAt(ctx context.Context, conversationID int64) (time.Time, error) {
	args := m.Called(ctx, conversationID)
	var at time.Time
	if val := args.Get(0); val != nil {
		at = val.(time.Time)
	}
	return at, args.Error(1)
}

func (m *MessageRepositoryMock) IDsByConversations(ctx context.Context, conversationIDs []int64) ([]int64, error) {
	args := m.Called(ctx, conversationIDs)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) MarkDeletedByConversations(ctx context.Context, conversationIDs []int64) (int64, error) {
	args := m.Called(ctx, conversationIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MediaRepositoryMock struct {
	mock.Mock
}

func (m *MediaRepositoryMock) CreateBatch(ctx context.Context, messageID int64, items []models.MediaAttachment) ([]models.MediaAttachment, error) {
	args := m.Called(ctx, messageID, items)
	var created []models.MediaAttachment
	if val := args.Get(0); val != nil {
		created = val.([]models.MediaAttachment)
	}
	return created, args.Error(1)
}

func (m *MediaRepositoryMock) ListForMessage(ctx context.Context, messageID int64) ([]models.MediaAttachment, error) {
	args := m.Called(ctx, messageID)
	var items []models.MediaAttachment
	if val := args.Get(0); val != nil {
		items = val.([]models.MediaAttachment)
	}
	return items, args.Error(1)
}

func (m *MediaRepositoryMock) MarkDeletedByMessage(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MediaRepositoryMock) MarkDeletedByConversations(ctx context.Context, conversationIDs []int64) (int64, error) {
	args := m.Called(ctx, conversationIDs)
	return args.Get(0).(int64), args.Error(1)
}

type SubscriptionRepositoryMock struct {
	mock.Mock
}

func (m *SubscriptionRepositoryMock) ActiveSubscriberIDs(ctx context.Context, creatorID int64) ([]int64, error) {
	args := m.Called(ctx, creatorID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var created models.Notification
	if val := args.Get(0); val != nil {
		created = val.(models.Notification)
	}
	return created, args.Error(1)
}

func (m *NotificationRepositoryMock) DeleteByMessage(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) DeleteForUserByMessages(ctx context.Context, userID int64, messageIDs []int64) (int64, error) {
	args := m.Called(ctx, userID, messageIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MediaProcessorMock struct {
	mock.Mock
}

func (m *MediaProcessorMock) Process(ctx context.Context, stagedKeys []string, continueOnError bool) (media.Result, error) {
	args := m.Called(ctx, stagedKeys, continueOnError)
	var res media.Result
	if val := args.Get(0); val != nil {
		res = val.(media.Result)
	}
	return res, args.Error(1)
}

func (m *MediaProcessorMock) Cleanup(ctx context.Context, res media.Result) {
	m.Called(ctx, res)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.MediaRepository = (*MediaRepositoryMock)(nil)
var _ repositories.SubscriptionRepository = (*SubscriptionRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ messaging.MediaProcessor = (*MediaProcessorMock)(nil)
