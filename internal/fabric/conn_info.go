package fabric

import (
	"time"

	"realtime-service/internal/observability"
)

// ConnInfo is the per-connection identity carried into lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	UserAgent   string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// LifecycleEvent renders a connection transition for the audit stream.
func LifecycleEvent(name string, info ConnInfo, durationMS int64, reason string) observability.WSEvent {
	return observability.WSEvent{
		Name:       name,
		ConnID:     info.ConnID,
		UserID:     info.UserID,
		DeviceID:   info.DeviceID,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
		RequestID:  info.RequestID,
		TraceID:    info.TraceID,
		DurationMS: durationMS,
		Reason:     reason,
	}
}
