package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"realtime-service/internal/push"
	"realtime-service/internal/telemetry"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("", "realtime")

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, p.Publish(context.Background(), "audit.calls", telemetry.AuditEnvelope{EventType: "call_ended"}))
	assert.NoError(t, p.PublishJSON(context.Background(), "push.send", push.Job{Tokens: []string{"t"}}, nil))
	assert.NoError(t, p.Close())
}
