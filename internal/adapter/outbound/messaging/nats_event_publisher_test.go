package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"entitysync/internal/application/service"
	"entitysync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNATSEventPublisher_Validation(t *testing.T) {
	_, err := NewNATSEventPublisher(config.NATSConfig{URL: ""})
	require.Error(t, err)

	_, err = NewNATSEventPublisher(config.NATSConfig{URL: "http://localhost:4222"})
	require.Error(t, err)

	_, err = NewNATSEventPublisher(config.NATSConfig{URL: "nats://localhost:4222", MaxReconnects: -1})
	require.Error(t, err)

	p, err := NewNATSEventPublisher(config.NATSConfig{URL: "nats://localhost:4222"})
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestPublishJobEvent_SubjectMapping(t *testing.T) {
	p := NewTestEventPublisher()
	ctx := context.Background()

	require.NoError(t, p.PublishJobEvent(ctx, service.EventJobStarted, []byte(`{}`)))
	require.NoError(t, p.PublishJobEvent(ctx, service.EventEntityCompleted, []byte(`{}`)))
	require.NoError(t, p.PublishJobEvent(ctx, service.EventJobStopped, []byte(`{}`)))

	published := p.Published()
	require.Len(t, published, 3)
	assert.Equal(t, "entitysync.jobs.started", published[0].Subject)
	assert.Equal(t, "entitysync.jobs.entity-completed", published[1].Subject)
	assert.Equal(t, "entitysync.jobs.stopped", published[2].Subject)
}

func TestPublishJobEvent_WithoutConnection(t *testing.T) {
	p, err := NewNATSEventPublisher(config.NATSConfig{URL: "nats://localhost:4222"})
	require.NoError(t, err)

	err = p.PublishJobEvent(context.Background(), service.EventJobStarted, []byte(`{}`))
	require.Error(t, err)
}

func TestRelayJobEvents(t *testing.T) {
	bus := service.NewEventBus()
	publisher := NewTestEventPublisher()
	RelayJobEvents(bus, publisher)

	bus.Publish(context.Background(), service.JobEvent{
		Name:   service.EventJobCompleted,
		JobID:  "job-1",
		Kind:   "sync",
		Counts: map[string]int{"processed": 5, "errors": 1},
	})

	published := publisher.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "entitysync.jobs.completed", published[0].Subject)

	var event service.JobEvent
	require.NoError(t, json.Unmarshal(published[0].Payload, &event))
	assert.Equal(t, "job-1", event.JobID)
	assert.Equal(t, 5, event.Counts["processed"])
}

func TestTestPublisher_CloseIsNoOp(t *testing.T) {
	p := NewTestEventPublisher()
	require.NoError(t, p.PublishJobEvent(context.Background(), service.EventJobPaused, nil))
	require.NoError(t, p.Close())
}
