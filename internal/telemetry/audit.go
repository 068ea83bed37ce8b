package telemetry

import (
	"context"
	"log"
	"strconv"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string     `json:"level"`
	Text  string     `json:"text"`
	Call  *CallAudit `json:"call,omitempty"`
}

// CallAudit summarizes a finished call for the history pipeline.
type CallAudit struct {
	CallID           string `json:"call_id"`
	ChatID           int    `json:"chat_id"`
	ChatType         string `json:"chat_type"`
	CallType         string `json:"call_type"`
	Outcome          string `json:"outcome"`
	Reason           string `json:"reason"`
	DurationSec      int    `json:"duration_sec"`
	ParticipantCount int    `json:"participant_count"`
	AcceptedUsers    []int  `json:"accepted_users"`
	MessageID        int    `json:"message_id,omitempty"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *string) {
	e.emit(ctx, "audit_log", requestID, userID, AuditPayload{Level: level, Text: text})
}

// EmitCallEnded records the terminal state of a call initiated by initiatorID.
func (e *AuditEmitter) EmitCallEnded(ctx context.Context, initiatorID int, call CallAudit) {
	uid := strconv.Itoa(initiatorID)
	e.emit(ctx, "call_ended", call.CallID, &uid, AuditPayload{
		Level: "INFO",
		Text:  "call " + call.CallID + " ended: " + call.Outcome,
		Call:  &call,
	})
}

func (e *AuditEmitter) emit(ctx context.Context, eventType, requestID string, userID *string, payload AuditPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: type=%s level=%s request_id=%s text=%q", eventType, payload.Level, requestID, payload.Text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
