package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
	"realtime-service/internal/signaling"
)

type recordingRouter struct {
	mu           sync.Mutex
	frames       []models.InboundFrame
	conns        []string
	disconnected []string
}

func (r *recordingRouter) Handle(_ context.Context, connID string, frame models.InboundFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	r.conns = append(r.conns, connID)
	return nil
}

func (r *recordingRouter) Disconnected(_ context.Context, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnected = append(r.disconnected, connID)
	return nil
}

func (r *recordingRouter) snapshot() ([]models.InboundFrame, []string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.InboundFrame(nil), r.frames...), append([]string(nil), r.conns...), append([]string(nil), r.disconnected...)
}

func setupGateway(t *testing.T) (*httptest.Server, *fabric.Hub, *recordingRouter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := fabric.NewHub()
	dispatcher := signaling.NewDispatcher(16)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = dispatcher.Run(ctx) }()

	router := &recordingRouter{}
	r := gin.New()
	r.GET("/ws", NewGateway(hub, dispatcher, router, 8).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		hub.Close()
	})
	return srv, hub, router
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestGatewayForwardsFramesAndDelivers(t *testing.T) {
	srv, hub, router := setupGateway(t)
	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"join-room","data":{"userId":1}}`)))

	var connID string
	require.Eventually(t, func() bool {
		frames, conns, _ := router.snapshot()
		if len(frames) != 1 {
			return false
		}
		connID = conns[0]
		return frames[0].Name == models.EventJoinRoom
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), fabric.ConnGroup(connID), models.Event{Name: models.EventCallBusy, Data: map[string]string{"callId": "x"}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Name string `json:"event"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.EventCallBusy, ev.Name)
}

func TestGatewayReportsDisconnect(t *testing.T) {
	srv, hub, router := setupGateway(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"set-away"}`)))
	require.Eventually(t, func() bool {
		frames, _, _ := router.snapshot()
		return len(frames) == 1
	}, 2*time.Second, 10*time.Millisecond)
	_, conns, _ := router.snapshot()

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		_, _, gone := router.snapshot()
		return len(gone) == 1 && gone[0] == conns[0]
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(hub.Members(fabric.ConnGroup(conns[0]))) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
