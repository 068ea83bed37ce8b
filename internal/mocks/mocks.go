package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"realtime-service/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Exists(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UpdatePresence(ctx context.Context, presence models.Presence) error {
	args := m.Called(ctx, presence)
	return args.Error(0)
}

func (m *UserRepositoryMock) ListPresence(ctx context.Context) ([]models.Presence, error) {
	args := m.Called(ctx)
	var list []models.Presence
	if val := args.Get(0); val != nil {
		list = val.([]models.Presence)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) PushTokens(ctx context.Context, userIDs []int) ([]string, error) {
	args := m.Called(ctx, userIDs)
	var tokens []string
	if val := args.Get(0); val != nil {
		tokens = val.([]string)
	}
	return tokens, args.Error(1)
}

func (m *UserRepositoryMock) MarkAllOffline(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}

type ChannelRepositoryMock struct {
	mock.Mock
}

func (m *ChannelRepositoryMock) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	args := m.Called(ctx, channelID)
	var ch models.Channel
	if val := args.Get(0); val != nil {
		ch = val.(models.Channel)
	}
	return ch, args.Error(1)
}

func (m *ChannelRepositoryMock) MemberIDs(ctx context.Context, channelID int) ([]int, error) {
	args := m.Called(ctx, channelID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ChannelRepositoryMock) ChannelIDsForUser(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type MessageStatusRepositoryMock struct {
	mock.Mock
}

func (m *MessageStatusRepositoryMock) Advance(ctx context.Context, userID int, messageIDs []int, from, to models.DeliveryStatus) ([]models.StatusChange, error) {
	args := m.Called(ctx, userID, messageIDs, from, to)
	var changes []models.StatusChange
	if val := args.Get(0); val != nil {
		changes = val.([]models.StatusChange)
	}
	return changes, args.Error(1)
}

func (m *MessageStatusRepositoryMock) UnreadMessageIDs(ctx context.Context, userID int, chatID int, chatType models.ChatType) ([]int, error) {
	args := m.Called(ctx, userID, chatID, chatType)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *MessageStatusRepositoryMock) UndeliveredMessageIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *MessageStatusRepositoryMock) ClearMentions(ctx context.Context, userID int, chatID int, chatType models.ChatType) (int64, error) {
	args := m.Called(ctx, userID, chatID, chatType)
	return int64(args.Int(0)), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateCallMessage(ctx context.Context, senderID int, chatID int, chatType models.ChatType, meta models.CallMetadata) (models.Message, error) {
	args := m.Called(ctx, senderID, chatID, chatType, meta)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MergeMetadata(ctx context.Context, messageID int, patch models.CallMetadata) (models.Message, error) {
	args := m.Called(ctx, messageID, patch)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CloseStaleCalls(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}
