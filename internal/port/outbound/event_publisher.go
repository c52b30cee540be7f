package outbound

import "context"

// EventPublisher relays job lifecycle events to an external broker for
// observability. Best effort only: a relay failure must never affect job
// execution.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, eventName string, payload []byte) error
	Close() error
}
