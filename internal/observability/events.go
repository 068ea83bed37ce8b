package observability

import "context"

// WSRoutingKey is the routing key of websocket lifecycle events.
const WSRoutingKey = "ws_events.realtime"

type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSEvent describes one websocket lifecycle transition.
type WSEvent struct {
	Name       string
	ConnID     string
	UserID     int
	DeviceID   string
	IP         string
	UserAgent  string
	RequestID  string
	TraceID    string
	DurationMS int64
	Reason     string
}

// PublishWSEvent counts the transition and ships it on WSRoutingKey.
func PublishWSEvent(ctx context.Context, ev WSEvent) {
	IncWSEvent("realtime", ev.Name)
	_ = PublishEvent(ctx, WSRoutingKey, EventEnvelope{
		EventType: "ws_events",
		EventName: ev.Name,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "realtime",
				"event":       ev.Name,
				"conn_id":     ev.ConnID,
				"duration_ms": ev.DurationMS,
				"reason":      ev.Reason,
			},
			"identity": map[string]interface{}{
				"user_id":    ev.UserID,
				"device_id":  ev.DeviceID,
				"ip":         ev.IP,
				"user_agent": ev.UserAgent,
			},
		},
	}, BuildHeaders(ev.RequestID, ev.TraceID))
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
