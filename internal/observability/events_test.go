package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	key     string
	message interface{}
	headers map[string]string
	err     error
}

func (p *capturePublisher) PublishJSON(_ context.Context, routingKey string, message interface{}, headers map[string]string) error {
	p.key = routingKey
	p.message = message
	p.headers = headers
	return p.err
}

func TestPublishWSEvent(t *testing.T) {
	pub := &capturePublisher{}
	SetPublisher(pub)
	t.Cleanup(func() { SetPublisher(nil) })

	PublishWSEvent(context.Background(), WSEvent{
		Name:      "ws_connect",
		ConnID:    "c1",
		UserID:    7,
		RequestID: "req-1",
		TraceID:   "trace-1",
	})

	assert.Equal(t, WSRoutingKey, pub.key)
	assert.Equal(t, map[string]string{"x-request-id": "req-1", "trace_id": "trace-1"}, pub.headers)
	env, ok := pub.message.(EventEnvelope)
	require.True(t, ok)
	assert.Equal(t, "ws_connect", env.EventName)
	payload := env.Payload.(map[string]interface{})
	identity := payload["identity"].(map[string]interface{})
	assert.Equal(t, 7, identity["user_id"])
}

func TestBuildHeadersSkipsEmpty(t *testing.T) {
	assert.Empty(t, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"trace_id": "t"}, BuildHeaders("", "t"))
}

func TestRequestMetaFrom(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	req.Header.Set("X-Device-Id", "dev-1")
	req.Header.Set("User-Agent", "client/1.0")

	meta := RequestMetaFrom(req)
	assert.Equal(t, "dev-1", meta.DeviceID)
	assert.Equal(t, "10.0.0.9", meta.IP)
	assert.Equal(t, "client/1.0", meta.UserAgent)

	req.Header.Set("X-Real-Ip", "172.16.0.4")
	assert.Equal(t, "172.16.0.4", RequestMetaFrom(req).IP)

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	assert.Equal(t, "203.0.113.5", RequestMetaFrom(req).IP)
}
