package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/fabric"
	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
)

const (
	sender = 1
	reader = 2
)

func dm(id int) models.Message {
	recipient := reader
	return models.Message{ID: id, SenderID: sender, RecipientID: &recipient}
}

func channelMsg(id, channelID int) models.Message {
	return models.Message{ID: id, SenderID: sender, ChannelID: &channelID}
}

func TestMarkSeenPromotesAndSummarizes(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStatusStore()
	for _, id := range []int{1, 2} {
		store.Add(dm(id), reader, models.StatusSent, false)
	}
	for _, id := range []int{3, 4, 5} {
		store.Add(dm(id), reader, models.StatusDelivered, id == 5)
	}
	fab := mocks.NewRecordingFabric()
	p := NewPropagator(store, fab)

	require.NoError(t, p.MarkSeen(ctx, []int{1, 2, 3, 4, 5}, reader))

	for id := 1; id <= 5; id++ {
		assert.Equal(t, models.StatusSeen, store.Status(id, reader))
	}
	updates := fab.Named(models.EventMessageStatusUpdated)
	require.Len(t, updates, 5)
	for _, u := range updates {
		assert.Equal(t, fabric.UserGroup(sender), u.Group)
		assert.Equal(t, models.StatusSeen, u.Event.Data.(models.MessageStatusPayload).Status)
	}

	reads := fab.Named(models.EventMessagesRead)
	require.Len(t, reads, 1)
	assert.Equal(t, fabric.UserGroup(sender), reads[0].Group)
	summary := reads[0].Event.Data.(models.MessagesReadPayload)
	assert.Equal(t, reader, summary.ChatID)
	assert.Equal(t, models.ChatTypeDM, summary.ChatType)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, summary.MessageIDs)
	assert.False(t, store.Mentioned(5, reader))
}

func TestMarkDeliveredAfterSeenIsNoop(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStatusStore()
	store.Add(dm(1), reader, models.StatusSeen, false)
	fab := mocks.NewRecordingFabric()
	p := NewPropagator(store, fab)

	require.NoError(t, p.MarkDelivered(ctx, []int{1}, reader))

	assert.Equal(t, models.StatusSeen, store.Status(1, reader))
	assert.Empty(t, fab.All())
}

func TestMarkDeliveredNotifiesOncePerChangedRow(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStatusStore()
	store.Add(dm(1), reader, models.StatusSent, false)
	store.Add(dm(2), reader, models.StatusDelivered, false)
	fab := mocks.NewRecordingFabric()
	p := NewPropagator(store, fab)

	require.NoError(t, p.MarkDelivered(ctx, []int{1, 2, 1, 99}, reader))

	updates := fab.Named(models.EventMessageStatusUpdated)
	require.Len(t, updates, 1)
	payload := updates[0].Event.Data.(models.MessageStatusPayload)
	assert.Equal(t, 1, payload.MessageID)
	assert.Equal(t, reader, payload.UserID)
	assert.Equal(t, models.StatusDelivered, payload.Status)
}

func TestMarkAllSeenForChannel(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStatusStore()
	store.Add(channelMsg(10, 7), reader, models.StatusSent, true)
	store.Add(channelMsg(11, 7), reader, models.StatusDelivered, false)
	store.Add(channelMsg(12, 8), reader, models.StatusSent, false)
	fab := mocks.NewRecordingFabric()
	p := NewPropagator(store, fab)

	require.NoError(t, p.MarkAllSeenForChat(ctx, 7, models.ChatTypeChannel, reader))

	assert.Equal(t, models.StatusSeen, store.Status(10, reader))
	assert.Equal(t, models.StatusSeen, store.Status(11, reader))
	assert.Equal(t, models.StatusSent, store.Status(12, reader))
	assert.False(t, store.Mentioned(10, reader))

	reads := fab.Named(models.EventMessagesRead)
	require.Len(t, reads, 1)
	assert.Equal(t, fabric.ChannelGroup(7), reads[0].Group)
}

func TestMarkAllSeenRejectsUnknownChatType(t *testing.T) {
	p := NewPropagator(mocks.NewStatusStore(), mocks.NewRecordingFabric())
	err := p.MarkAllSeenForChat(context.Background(), 1, models.ChatType("thread"), reader)
	assert.ErrorIs(t, err, models.ErrBadPayload)
}

func TestCatchUpDeliversPendingMessages(t *testing.T) {
	ctx := context.Background()
	statuses := new(mocks.MessageStatusRepositoryMock)
	fab := mocks.NewRecordingFabric()
	p := NewPropagator(statuses, fab)

	statuses.On("UndeliveredMessageIDs", mock.Anything, reader).Return([]int{4, 5}, nil).Once()
	statuses.On("Advance", mock.Anything, reader, []int{4, 5}, models.StatusSent, models.StatusDelivered).
		Return([]models.StatusChange{
			{MessageID: 4, SenderID: sender, Status: models.StatusDelivered},
			{MessageID: 5, SenderID: 3, Status: models.StatusDelivered},
		}, nil).Once()

	require.NoError(t, p.CatchUp(ctx, reader))

	assert.Equal(t, []string{models.EventMessageStatusUpdated}, fab.To(fabric.UserGroup(sender)))
	assert.Equal(t, []string{models.EventMessageStatusUpdated}, fab.To(fabric.UserGroup(3)))
	statuses.AssertExpectations(t)
}

func TestCatchUpLookupError(t *testing.T) {
	statuses := new(mocks.MessageStatusRepositoryMock)
	p := NewPropagator(statuses, mocks.NewRecordingFabric())
	statuses.On("UndeliveredMessageIDs", mock.Anything, reader).Return(nil, assert.AnError).Once()

	assert.ErrorIs(t, p.CatchUp(context.Background(), reader), assert.AnError)
}
