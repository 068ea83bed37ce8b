// Package signaling turns inbound websocket frames into component calls and
// runs all of them, in order, on one goroutine.
package signaling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"realtime-service/internal/models"
	"realtime-service/internal/observability"
)

var ErrStopped = errors.New("dispatcher stopped")

// Handler is one unit of engine work.
type Handler func(ctx context.Context) error

type job struct {
	name   string
	connID string
	fn     Handler
	done   chan error
}

// Dispatcher is the engine loop. Every inbound event, connect and
// disconnect notification and timer callback is executed by Run, one at a
// time, so engine state needs no further locking.
type Dispatcher struct {
	queue   chan job
	stopped chan struct{}
	tracer  trace.Tracer
}

func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = 1024
	}
	return &Dispatcher{
		queue:   make(chan job, size),
		stopped: make(chan struct{}),
		tracer:  otel.Tracer("realtime-service/signaling"),
	}
}

// Run executes queued work until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.stopped)
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-d.queue:
			observability.SetQueueDepth(len(d.queue))
			err := d.execute(ctx, j)
			if j.done != nil {
				j.done <- err
			}
		}
	}
}

// Submit queues fn. It blocks while the queue is full so a flooding
// connection slows down its own read loop.
func (d *Dispatcher) Submit(ctx context.Context, name, connID string, fn Handler) error {
	return d.enqueue(ctx, job{name: name, connID: connID, fn: fn})
}

// Do runs fn on the loop and waits for its result.
func (d *Dispatcher) Do(ctx context.Context, name string, fn Handler) error {
	done := make(chan error, 1)
	if err := d.enqueue(ctx, job{name: name, fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	}
}

// Schedule queues a timer callback.
func (d *Dispatcher) Schedule(fn func(ctx context.Context)) {
	err := d.enqueue(context.Background(), job{name: "timer", fn: func(ctx context.Context) error {
		fn(ctx)
		return nil
	}})
	if err != nil {
		log.Printf("signaling: timer dropped: %v", err)
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, j job) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}
	select {
	case d.queue <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return ErrStopped
	}
}

func (d *Dispatcher) execute(ctx context.Context, j job) (err error) {
	ctx, span := d.tracer.Start(ctx, "signaling."+j.name, trace.WithAttributes(
		attribute.String("realtime.event", j.name),
		attribute.String("realtime.conn_id", j.connID),
	))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic handling %s: %v", j.name, r)
		}
		observability.ObserveEvent(j.name, time.Since(start))
		if err != nil {
			reason := models.DropReason(err)
			observability.IncDroppedEvent(j.name, reason)
			span.RecordError(err)
			span.SetStatus(codes.Error, reason)
			log.Printf("signaling: dropped event=%s conn=%s reason=%s: %v", j.name, j.connID, reason, err)
		}
		span.End()
	}()

	return j.fn(ctx)
}
