package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"realtime-service/internal/mocks"
)

func TestSendToUsersPublishesJob(t *testing.T) {
	pub := new(mocks.PublisherMock)
	d := NewDispatcher(pub, "push.send")

	pub.On("PublishJSON", mock.Anything, "push.send", mock.MatchedBy(func(job Job) bool {
		return len(job.Tokens) == 2 && job.Title == "Incoming call" && job.Data["call_id"] == "c1"
	}), mock.Anything).Return(nil).Once()

	res := d.SendToUsers(context.Background(), []string{"t1", "t2"}, "Incoming call", "alice is calling", map[string]string{"call_id": "c1"})

	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	pub.AssertExpectations(t)
}

func TestSendToUsersReportsFailure(t *testing.T) {
	pub := new(mocks.PublisherMock)
	d := NewDispatcher(pub, "push.send")
	pub.On("PublishJSON", mock.Anything, "push.send", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	res := d.SendToUsers(context.Background(), []string{"t1"}, "t", "b", nil)

	assert.False(t, res.Success)
	assert.Equal(t, assert.AnError.Error(), res.Error)
}

func TestSendToUsersWithoutTokens(t *testing.T) {
	pub := new(mocks.PublisherMock)
	d := NewDispatcher(pub, "push.send")

	res := d.SendToUsers(context.Background(), nil, "t", "b", nil)

	assert.True(t, res.Success)
	pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
