package memory

import (
	"context"
	"sync"
	"time"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"

	"github.com/google/uuid"
)

// JobStore is an in-memory job store. Records are snapshotted on write so
// later mutation of the live entity never leaks into stored state.
type JobStore struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*entity.SyncJob
	order   []uuid.UUID
	history map[uuid.UUID][]*entity.HistoryEntry
}

// NewJobStore creates an empty in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[uuid.UUID]*entity.SyncJob),
		history: make(map[uuid.UUID][]*entity.HistoryEntry),
	}
}

// Save stores a new job record.
func (s *JobStore) Save(_ context.Context, job *entity.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID()]; !exists {
		s.order = append(s.order, job.ID())
	}
	s.jobs[job.ID()] = snapshotJob(job)
	return nil
}

// Update overwrites the stored record for the job's id.
func (s *JobStore) Update(_ context.Context, job *entity.SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID()]; !exists {
		return domainerrors.ErrJobNotFound
	}
	s.jobs[job.ID()] = snapshotJob(job)
	return nil
}

// FindByID returns a snapshot of the stored job, or ErrJobNotFound.
func (s *JobStore) FindByID(_ context.Context, jobID uuid.UUID) (*entity.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domainerrors.ErrJobNotFound
	}
	return snapshotJob(job), nil
}

// FindActive returns pending, running, and paused jobs in submission order.
func (s *JobStore) FindActive(_ context.Context) ([]*entity.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*entity.SyncJob
	for _, id := range s.order {
		if job := s.jobs[id]; job.IsActive() {
			active = append(active, snapshotJob(job))
		}
	}
	return active, nil
}

// AppendHistory appends one history entry for the entry's job.
func (s *JobStore) AppendHistory(_ context.Context, entry *entity.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[entry.JobID()] = append(s.history[entry.JobID()], entry)
	return nil
}

// FindHistory returns up to limit entries for the job, newest first.
func (s *JobStore) FindHistory(_ context.Context, jobID uuid.UUID, limit int) ([]*entity.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[jobID]
	result := make([]*entity.HistoryEntry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, entries[i])
	}
	return result, nil
}

// PurgeHistoryBefore deletes entries recorded before the cutoff and returns
// the number deleted.
func (s *JobStore) PurgeHistoryBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for jobID, entries := range s.history {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.CreatedAt().Before(cutoff) {
				purged++
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(s.history, jobID)
			continue
		}
		s.history[jobID] = kept
	}
	return purged, nil
}

func snapshotJob(job *entity.SyncJob) *entity.SyncJob {
	return entity.RestoreSyncJob(
		job.ID(),
		job.Kind(),
		job.EntityTypes(),
		job.Status(),
		job.Options(),
		job.Progress(),
		job.CurrentEntityType(),
		job.EntityProgress(),
		job.ProcessedCount(),
		job.ErrorCount(),
		job.LastError(),
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
}
