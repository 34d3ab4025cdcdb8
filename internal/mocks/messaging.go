package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creator-messaging/internal/messaging"
	"creator-messaging/internal/models"
)

type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) Send(ctx context.Context, senderID int64, in messaging.SendInput) (messaging.SendOutput, error) {
	args := m.Called(ctx, senderID, in)
	var out messaging.SendOutput
	if val := args.Get(0); val != nil {
		out = val.(messaging.SendOutput)
	}
	return out, args.Error(1)
}

type BroadcastSenderMock struct {
	mock.Mock
}

func (m *BroadcastSenderMock) Broadcast(ctx context.Context, creatorID int64, in messaging.BroadcastInput) (models.BroadcastResult, error) {
	args := m.Called(ctx, creatorID, in)
	var result models.BroadcastResult
	if val := args.Get(0); val != nil {
		result = val.(models.BroadcastResult)
	}
	return result, args.Error(1)
}

type DeleterMock struct {
	mock.Mock
}

func (m *DeleterMock) DeleteMessage(ctx context.Context, callerID, messageID int64) error {
	args := m.Called(ctx, callerID, messageID)
	return args.Error(0)
}

func (m *DeleterMock) DeleteConversation(ctx context.Context, callerID, otherUserID int64) (messaging.ConversationDeleteStats, error) {
	args := m.Called(ctx, callerID, otherUserID)
	var stats messaging.ConversationDeleteStats
	if val := args.Get(0); val != nil {
		stats = val.(messaging.ConversationDeleteStats)
	}
	return stats, args.Error(1)
}

var _ messaging.Sender = (*SenderMock)(nil)
var _ messaging.BroadcastSender = (*BroadcastSenderMock)(nil)
var _ messaging.Deleter = (*DeleterMock)(nil)
