package outbound

import (
	"context"
	"time"

	"entitysync/internal/domain/entity"

	"github.com/google/uuid"
)

// JobStore persists job records and the append-only history log. It must
// tolerate concurrent writers for distinct job ids and provide at least
// read-your-writes consistency per job id. The orchestrator is the single
// writer for any one job's record, so no cross-job locking is required.
type JobStore interface {
	// Save persists a new job record.
	Save(ctx context.Context, job *entity.SyncJob) error

	// Update replaces the stored record for the job's id.
	Update(ctx context.Context, job *entity.SyncJob) error

	// FindByID returns the job, or ErrJobNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SyncJob, error)

	// FindActive returns all jobs whose status is pending, running, or
	// paused, ordered by creation time.
	FindActive(ctx context.Context) ([]*entity.SyncJob, error)

	// AppendHistory appends one history entry. Entries are never mutated.
	AppendHistory(ctx context.Context, entry *entity.HistoryEntry) error

	// FindHistory returns up to limit entries for the job, newest first.
	FindHistory(ctx context.Context, jobID uuid.UUID, limit int) ([]*entity.HistoryEntry, error)

	// PurgeHistoryBefore deletes history entries older than cutoff and
	// returns the number removed. This is the only history deletion path.
	PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int, error)
}
