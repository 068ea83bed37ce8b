// Package push hands notification jobs to the push worker over AMQP.
package push

import (
	"context"
	"log"
	"time"

	"realtime-service/internal/observability"
)

// Result is the outcome of one dispatch.
type Result struct {
	Success bool
	Error   string
}

// Sender is the push contract used by the call coordinator.
type Sender interface {
	SendToUsers(ctx context.Context, tokens []string, title, body string, data map[string]string) Result
}

// Publisher is the slice of rabbitmq.Publisher the dispatcher uses.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

// Job is the message consumed by the push worker.
type Job struct {
	Tokens    []string          `json:"tokens"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Dispatcher publishes push jobs.
type Dispatcher struct {
	publisher  Publisher
	routingKey string
}

func NewDispatcher(publisher Publisher, routingKey string) *Dispatcher {
	return &Dispatcher{publisher: publisher, routingKey: routingKey}
}

// SendToUsers queues a notification for every token. An empty token list
// succeeds without publishing.
func (d *Dispatcher) SendToUsers(ctx context.Context, tokens []string, title, body string, data map[string]string) Result {
	if len(tokens) == 0 {
		observability.IncPushDispatch("skipped")
		return Result{Success: true}
	}
	job := Job{Tokens: tokens, Title: title, Body: body, Data: data, CreatedAt: time.Now().UTC()}
	if err := d.publisher.PublishJSON(ctx, d.routingKey, job, map[string]string{"x-job-type": "push"}); err != nil {
		log.Printf("push: publish failed routing_key=%s tokens=%d: %v", d.routingKey, len(tokens), err)
		observability.IncPushDispatch("error")
		return Result{Error: err.Error()}
	}
	observability.IncPushDispatch("queued")
	return Result{Success: true}
}
