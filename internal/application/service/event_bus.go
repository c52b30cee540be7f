package service

import (
	"context"
	"fmt"
	"sync"

	"entitysync/internal/application/common/slogger"
)

// Job lifecycle event names published on the EventBus.
const (
	EventJobStarted      = "job.started"
	EventEntityCompleted = "job.entity-completed"
	EventJobPaused       = "job.paused"
	EventJobStopped      = "job.stopped"
	EventJobCompleted    = "job.completed"
	EventJobFailed       = "job.failed"
	EventJobError        = "job.error"
)

// JobEvent is the payload delivered to subscribers.
type JobEvent struct {
	Name       string            `json:"name"`
	JobID      string            `json:"job_id"`
	Kind       string            `json:"kind"`
	EntityType string            `json:"entity_type,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	Counts     map[string]int    `json:"counts,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EventHandler receives published events. Handlers are invoked synchronously
// in subscription order; a panicking handler is recovered and logged.
type EventHandler func(ctx context.Context, event JobEvent)

// EventBus is an instance-scoped publish/subscribe dispatcher for job
// lifecycle notifications. Delivery is best effort with no backpressure;
// subscriber failures never affect job execution. Each orchestrator owns
// its own bus, so instances in tests do not cross-talk.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for the named event.
func (b *EventBus) Subscribe(eventName string, handler EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// SubscribeAll registers a handler for every event name used by the
// orchestrator, for relays that forward the whole lifecycle stream.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	for _, name := range []string{
		EventJobStarted,
		EventEntityCompleted,
		EventJobPaused,
		EventJobStopped,
		EventJobCompleted,
		EventJobFailed,
		EventJobError,
	} {
		b.Subscribe(name, handler)
	}
}

// Publish dispatches the event to all handlers subscribed to its name.
func (b *EventBus) Publish(ctx context.Context, event JobEvent) {
	b.mu.RLock()
	handlers := b.handlers[event.Name]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(ctx, handler, event)
	}
}

func (b *EventBus) dispatch(ctx context.Context, handler EventHandler, event JobEvent) {
	defer func() {
		if r := recover(); r != nil {
			slogger.Error(ctx, "event subscriber panicked", slogger.Fields2(
				"event", event.Name,
				"panic", fmt.Sprintf("%v", r),
			))
		}
	}()
	handler(ctx, event)
}
