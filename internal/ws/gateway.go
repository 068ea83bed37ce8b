package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"realtime-service/internal/fabric"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/signaling"
)

const (
	maxFrameSize = 64 << 10
	pongWait     = 60 * time.Second
)

// Router executes decoded frames on the engine loop.
type Router interface {
	Handle(ctx context.Context, connID string, frame models.InboundFrame) error
	Disconnected(ctx context.Context, connID string) error
}

// Queue is the engine loop's intake.
type Queue interface {
	Submit(ctx context.Context, name, connID string, fn signaling.Handler) error
}

// Gateway upgrades HTTP requests to websocket connections and feeds their
// frames to the engine.
type Gateway struct {
	hub        *fabric.Hub
	queue      Queue
	router     Router
	sendBuffer int
}

// NewGateway constructs a Gateway.
func NewGateway(hub *fabric.Hub, queue Queue, router Router, sendBuffer int) *Gateway {
	return &Gateway{hub: hub, queue: queue, router: router, sendBuffer: sendBuffer}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, attaches it to the hub and starts its read
// loop. Identity is bound later by the join-room event.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("realtime-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	meta := observability.RequestMetaFrom(c.Request)
	info := fabric.ConnInfo{
		ConnID:      uuid.NewString(),
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		RequestID:   meta.RequestID,
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := fabric.NewClient(info, conn, g.sendBuffer)
	g.hub.Attach(client)
	publishLifecycle(ctx, "ws_connect", info, "")

	go g.readLoop(context.WithoutCancel(ctx), conn, client)
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, client *fabric.Client) {
	connID := client.ID
	var closeReason string
	defer func() {
		err := g.queue.Submit(ctx, "disconnect", connID, func(ctx context.Context) error {
			defer g.hub.Detach(connID)
			return g.router.Disconnected(ctx, connID)
		})
		if err != nil {
			g.hub.Detach(connID)
		}
		publishLifecycle(ctx, "ws_disconnect", client.Info(), closeReason)
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycle(ctx, "ws_error", client.Info(), closeReason)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Name == "" {
			observability.IncDroppedEvent("unknown", models.DropReason(models.ErrBadPayload))
			log.Printf("ws: undecodable frame conn=%s bytes=%d", connID, len(data))
			continue
		}
		observability.IncWSEvent("realtime", "in:"+frame.Name)

		if err := g.queue.Submit(ctx, frame.Name, connID, func(ctx context.Context) error {
			return g.router.Handle(ctx, connID, frame)
		}); err != nil {
			closeReason = err.Error()
			return
		}
	}
}

func publishLifecycle(ctx context.Context, event string, info fabric.ConnInfo, reason string) {
	duration := int64(0)
	if event != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	observability.PublishWSEvent(ctx, fabric.LifecycleEvent(event, info, duration, reason))
}
