package service

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// CancelToken is a cooperative cancellation flag. It is only ever polled at
// entity-type and batch boundaries, so an in-flight batch always runs to
// completion before the signal is honored.
type CancelToken struct {
	signaled atomic.Bool
}

// Signal marks the token cancelled.
func (t *CancelToken) Signal() {
	t.signaled.Store(true)
}

// Signaled reports whether the token has been cancelled.
func (t *CancelToken) Signaled() bool {
	return t.signaled.Load()
}

// CancellationRegistry maps an active job id to its cancellation token.
// Safe for concurrent registration and signaling from multiple jobs and
// external control calls. Exactly one token is registered per active job id.
type CancellationRegistry struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*CancelToken
}

// NewCancellationRegistry creates an empty registry.
func NewCancellationRegistry() *CancellationRegistry {
	return &CancellationRegistry{
		tokens: make(map[uuid.UUID]*CancelToken),
	}
}

// Register creates and stores a token for the job id, replacing any stale
// entry for the same id.
func (r *CancellationRegistry) Register(jobID uuid.UUID) *CancelToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := &CancelToken{}
	r.tokens[jobID] = token
	return token
}

// Signal marks the job's token cancelled and removes the mapping. Returns
// false when no token was registered for the id.
func (r *CancellationRegistry) Signal(jobID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[jobID]
	if !ok {
		return false
	}
	token.Signal()
	delete(r.tokens, jobID)
	return true
}

// Remove drops the registration without signaling, used when a job reaches
// a final status on its own.
func (r *CancellationRegistry) Remove(jobID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, jobID)
}

// IsSignaled reports whether the given token has been cancelled. Nil tokens
// are never signaled.
func (r *CancellationRegistry) IsSignaled(token *CancelToken) bool {
	return token != nil && token.Signaled()
}

// SignalAll marks every registered token cancelled. Used on shutdown so
// running jobs suspend at their next boundary.
func (r *CancellationRegistry) SignalAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for jobID, token := range r.tokens {
		token.Signal()
		delete(r.tokens, jobID)
	}
}

// ActiveCount returns the number of registered tokens.
func (r *CancellationRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
