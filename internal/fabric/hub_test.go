package fabric

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/models"
)

func newTestClient(id string, buffer int) *Client {
	return NewClient(ConnInfo{ConnID: id, ConnectedAt: time.Now()}, nil, buffer)
}

func drain(t *testing.T, c *Client) []models.InboundFrame {
	t.Helper()
	var frames []models.InboundFrame
	for {
		select {
		case payload := <-c.send:
			var frame models.InboundFrame
			require.NoError(t, json.Unmarshal(payload, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func TestHubAttachSubscribesConnectionGroup(t *testing.T) {
	hub := NewHub()
	c := newTestClient("c1", 4)
	hub.Attach(c)

	assert.Equal(t, []string{"c1"}, hub.Members(ConnGroup("c1")))

	hub.Detach("c1")
	assert.Empty(t, hub.Members(ConnGroup("c1")))
	assert.Len(t, hub.groups, 0)
	select {
	case <-c.Done():
	default:
		t.Fatal("expected detached client to be closed")
	}
}

func TestHubPublishRespectsGroupsAndExclusions(t *testing.T) {
	hub := NewHub()
	a1, a2, b := newTestClient("a1", 4), newTestClient("a2", 4), newTestClient("b", 4)
	for _, c := range []*Client{a1, a2, b} {
		hub.Attach(c)
	}
	require.NoError(t, hub.Subscribe("a1", UserGroup(1)))
	require.NoError(t, hub.Subscribe("a2", UserGroup(1)))
	require.NoError(t, hub.Subscribe("b", UserGroup(2)))

	err := hub.Publish(context.Background(), UserGroup(1), models.Event{Name: "ping", Data: map[string]int{"n": 1}}, "a2")
	require.NoError(t, err)

	assert.Len(t, drain(t, a1), 1)
	assert.Empty(t, drain(t, a2))
	assert.Empty(t, drain(t, b))
}

func TestHubSubscribeUnknownConnection(t *testing.T) {
	hub := NewHub()
	err := hub.Subscribe("missing", Everyone)
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

func TestClientClosedWhenBufferFull(t *testing.T) {
	hub := NewHub()
	c := newTestClient("slow", 1)
	hub.Attach(c)
	require.NoError(t, hub.Subscribe("slow", Everyone))

	ev := models.Event{Name: "tick"}
	require.NoError(t, hub.Publish(context.Background(), Everyone, ev))
	require.NoError(t, hub.Publish(context.Background(), Everyone, ev))

	select {
	case <-c.Done():
	default:
		t.Fatal("expected client to be closed after overflowing its buffer")
	}
	assert.ErrorIs(t, c.Send([]byte("x")), ErrClientClosed)
}

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeConn) WriteControl(int, []byte, time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestWriteLoopDeliversQueuedFrames(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	c := NewClient(ConnInfo{ConnID: "w"}, conn, 8)
	hub.Attach(c)

	require.NoError(t, hub.Publish(context.Background(), ConnGroup("w"), models.Event{Name: "hello"}))
	assert.Eventually(t, func() bool { return conn.count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	assert.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.closed
	}, time.Second, 5*time.Millisecond)
}

func TestHubIdentifyBindsUser(t *testing.T) {
	h := NewHub()
	c := newTestClient("c1", 4)
	h.Attach(c)

	h.Identify("c1", 42)
	h.Identify("missing", 7)

	assert.Equal(t, 42, c.Info().UserID)
}
