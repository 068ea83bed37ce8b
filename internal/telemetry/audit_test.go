package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *publisherMock) Close() error {
	return m.Called().Error(0)
}

func TestEmitCallEndedPublishesEnvelope(t *testing.T) {
	pub := new(publisherMock)
	emitter := NewAuditEmitter(pub, "audit.calls", "realtime-service", "test")

	var captured AuditEnvelope
	pub.On("Publish", mock.Anything, "audit.calls", mock.AnythingOfType("telemetry.AuditEnvelope")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(AuditEnvelope) }).
		Return(nil).Once()

	emitter.EmitCallEnded(context.Background(), 7, CallAudit{CallID: "c1", Outcome: "no_answer", AcceptedUsers: []int{7}})

	pub.AssertExpectations(t)
	require.NotNil(t, captured.Payload.Call)
	assert.Equal(t, "call_ended", captured.EventType)
	assert.Equal(t, "c1", captured.RequestID)
	require.NotNil(t, captured.UserID)
	assert.Equal(t, "7", *captured.UserID)
	assert.Equal(t, "no_answer", captured.Payload.Call.Outcome)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.EmitCallEnded(context.Background(), 1, CallAudit{CallID: "x"})
	})
}
