package inbound

import (
	"context"

	"entitysync/internal/application/dto"

	"github.com/google/uuid"
)

// JobService is the job-control surface exposed to protocol/tool layers.
// Submit returns before any item is processed; background execution errors
// surface only through GetJobProgress and GetJobHistory.
type JobService interface {
	// SubmitJob validates the request, persists a pending job, schedules
	// background execution, and returns the new job id immediately.
	SubmitJob(ctx context.Context, request dto.SubmitJobRequest) (uuid.UUID, error)

	// PauseJob requests a cooperative pause at the next batch boundary.
	PauseJob(ctx context.Context, jobID uuid.UUID) error

	// StopJob terminates the job; the persisted status becomes failed.
	StopJob(ctx context.Context, jobID uuid.UUID) error

	// GetJobProgress returns a snapshot, or nil when the id is unknown.
	GetJobProgress(ctx context.Context, jobID uuid.UUID) (*dto.JobSnapshot, error)

	// ListActiveJobs returns snapshots of all pending, running, and paused jobs.
	ListActiveJobs(ctx context.Context) ([]*dto.JobSnapshot, error)

	// GetJobHistory returns up to limit history entries, newest first.
	GetJobHistory(ctx context.Context, jobID uuid.UUID, limit int) ([]dto.HistoryEntryDTO, error)
}
