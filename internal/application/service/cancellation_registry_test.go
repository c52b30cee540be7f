package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellationRegistry_SignalRegisteredToken(t *testing.T) {
	registry := NewCancellationRegistry()
	jobID := uuid.New()

	token := registry.Register(jobID)
	assert.False(t, token.Signaled())

	require.True(t, registry.Signal(jobID))
	assert.True(t, token.Signaled())
	assert.Equal(t, 0, registry.ActiveCount())
}

func TestCancellationRegistry_SignalUnknownJob(t *testing.T) {
	registry := NewCancellationRegistry()
	assert.False(t, registry.Signal(uuid.New()))
}

func TestCancellationRegistry_SignalIsIdempotent(t *testing.T) {
	registry := NewCancellationRegistry()
	jobID := uuid.New()
	token := registry.Register(jobID)

	require.True(t, registry.Signal(jobID))
	// Second signal finds no token but the first stays signaled.
	assert.False(t, registry.Signal(jobID))
	assert.True(t, token.Signaled())
}

func TestCancellationRegistry_RegisterReplacesStaleToken(t *testing.T) {
	registry := NewCancellationRegistry()
	jobID := uuid.New()

	stale := registry.Register(jobID)
	fresh := registry.Register(jobID)

	require.True(t, registry.Signal(jobID))
	assert.True(t, fresh.Signaled())
	assert.False(t, stale.Signaled())
}

func TestCancellationRegistry_RemoveWithoutSignal(t *testing.T) {
	registry := NewCancellationRegistry()
	jobID := uuid.New()
	token := registry.Register(jobID)

	registry.Remove(jobID)
	assert.False(t, token.Signaled())
	assert.Equal(t, 0, registry.ActiveCount())
}

func TestCancellationRegistry_SignalAll(t *testing.T) {
	registry := NewCancellationRegistry()
	first := registry.Register(uuid.New())
	second := registry.Register(uuid.New())

	registry.SignalAll()

	assert.True(t, first.Signaled())
	assert.True(t, second.Signaled())
	assert.Equal(t, 0, registry.ActiveCount())
}
