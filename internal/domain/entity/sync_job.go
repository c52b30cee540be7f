package entity

import (
	"time"

	"entitysync/internal/domain/valueobject"

	"github.com/google/uuid"
)

// JobOptions carries the recognized submission options for a job.
// Unrecognized option keys are dropped at the DTO boundary before a
// JobOptions is built; only these fields ever reach the orchestrator.
type JobOptions struct {
	BatchSize     int
	Concurrency   int           // reserved for future parallel item execution
	RetryAttempts int           // reserved; item-level handling never retries
	RetryDelay    time.Duration // reserved
	UpdatedSince  *time.Time    // filter passed through to the entity provider
}

// Normalize fills defaults for the given kind and clamps invalid values.
func (o JobOptions) Normalize(kind valueobject.JobKind) JobOptions {
	if o.BatchSize < 1 {
		o.BatchSize = kind.DefaultBatchSize()
	}
	return o
}

// EntityProgress tracks per-entity-type sub-progress for the type in flight.
type EntityProgress struct {
	EntityType string
	Processed  int
	Total      int
}

// SyncJob represents one submitted unit of background work covering one or
// more entity types. The orchestrator is its only writer during execution.
type SyncJob struct {
	id             uuid.UUID
	kind           valueobject.JobKind
	entityTypes    []string
	status         valueobject.JobStatus
	options        JobOptions
	progress       int // overall percent, 0-100
	currentEntity  string
	entityProgress *EntityProgress
	processedCount int
	errorCount     int
	lastError      *string
	startedAt      *time.Time
	completedAt    *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewSyncJob creates a new pending job.
func NewSyncJob(kind valueobject.JobKind, entityTypes []string, options JobOptions) *SyncJob {
	now := time.Now()
	types := make([]string, len(entityTypes))
	copy(types, entityTypes)
	return &SyncJob{
		id:          uuid.New(),
		kind:        kind,
		entityTypes: types,
		status:      valueobject.JobStatusPending,
		options:     options.Normalize(kind),
		createdAt:   now,
		updatedAt:   now,
	}
}

// RestoreSyncJob creates a SyncJob entity from stored data.
func RestoreSyncJob(
	id uuid.UUID,
	kind valueobject.JobKind,
	entityTypes []string,
	status valueobject.JobStatus,
	options JobOptions,
	progress int,
	currentEntity string,
	entityProgress *EntityProgress,
	processedCount int,
	errorCount int,
	lastError *string,
	startedAt *time.Time,
	completedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *SyncJob {
	return &SyncJob{
		id:             id,
		kind:           kind,
		entityTypes:    entityTypes,
		status:         status,
		options:        options,
		progress:       progress,
		currentEntity:  currentEntity,
		entityProgress: entityProgress,
		processedCount: processedCount,
		errorCount:     errorCount,
		lastError:      lastError,
		startedAt:      startedAt,
		completedAt:    completedAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the job ID.
func (j *SyncJob) ID() uuid.UUID {
	return j.id
}

// Kind returns the job kind.
func (j *SyncJob) Kind() valueobject.JobKind {
	return j.kind
}

// EntityTypes returns the entity types in submission order.
func (j *SyncJob) EntityTypes() []string {
	types := make([]string, len(j.entityTypes))
	copy(types, j.entityTypes)
	return types
}

// Status returns the current job status.
func (j *SyncJob) Status() valueobject.JobStatus {
	return j.status
}

// Options returns the normalized submission options.
func (j *SyncJob) Options() JobOptions {
	return j.options
}

// Progress returns the overall percent complete.
func (j *SyncJob) Progress() int {
	return j.progress
}

// CurrentEntityType returns the entity type in flight, if any.
func (j *SyncJob) CurrentEntityType() string {
	return j.currentEntity
}

// EntityProgress returns the sub-progress for the entity type in flight.
func (j *SyncJob) EntityProgress() *EntityProgress {
	if j.entityProgress == nil {
		return nil
	}
	p := *j.entityProgress
	return &p
}

// ProcessedCount returns the cumulative processed item count.
func (j *SyncJob) ProcessedCount() int {
	return j.processedCount
}

// ErrorCount returns the cumulative item error count.
func (j *SyncJob) ErrorCount() int {
	return j.errorCount
}

// LastError returns the most recent error message, if any.
func (j *SyncJob) LastError() *string {
	return j.lastError
}

// StartedAt returns the job start timestamp.
func (j *SyncJob) StartedAt() *time.Time {
	return j.startedAt
}

// CompletedAt returns the job completion timestamp.
func (j *SyncJob) CompletedAt() *time.Time {
	return j.completedAt
}

// CreatedAt returns the creation timestamp.
func (j *SyncJob) CreatedAt() time.Time {
	return j.createdAt
}

// UpdatedAt returns the last update timestamp.
func (j *SyncJob) UpdatedAt() time.Time {
	return j.updatedAt
}

// IsTerminal returns true if the job is in a terminal state.
func (j *SyncJob) IsTerminal() bool {
	return j.status.IsTerminal()
}

// IsActive returns true if the job is pending, running, or paused.
func (j *SyncJob) IsActive() bool {
	return j.status.IsActive()
}

// Start marks the job as running and records its start time.
func (j *SyncJob) Start() error {
	if !j.status.CanTransitionTo(valueobject.JobStatusRunning) {
		return NewDomainError("cannot start job in current status", "INVALID_STATUS_TRANSITION")
	}

	now := time.Now()
	j.status = valueobject.JobStatusRunning
	j.startedAt = &now
	j.updatedAt = now
	return nil
}

// Complete marks the job as completed. A job that finished with item errors
// still completes; failed is reserved for errors that abort the whole job.
func (j *SyncJob) Complete() error {
	if !j.status.CanTransitionTo(valueobject.JobStatusCompleted) {
		return NewDomainError("cannot complete job in current status", "INVALID_STATUS_TRANSITION")
	}

	now := time.Now()
	j.status = valueobject.JobStatusCompleted
	j.completedAt = &now
	j.progress = 100
	j.currentEntity = ""
	j.entityProgress = nil
	j.updatedAt = now
	return nil
}

// Fail marks the job as failed with an error message.
func (j *SyncJob) Fail(errorMessage string) error {
	if !j.status.CanTransitionTo(valueobject.JobStatusFailed) {
		return NewDomainError("cannot fail job in current status", "INVALID_STATUS_TRANSITION")
	}

	now := time.Now()
	j.status = valueobject.JobStatusFailed
	j.completedAt = &now
	j.lastError = &errorMessage
	j.updatedAt = now
	return nil
}

// Pause halts further entity-type processing. Counts for already-completed
// entity types are preserved.
func (j *SyncJob) Pause() error {
	if !j.status.CanTransitionTo(valueobject.JobStatusPaused) {
		return NewDomainError("cannot pause job in current status", "INVALID_STATUS_TRANSITION")
	}

	j.status = valueobject.JobStatusPaused
	j.updatedAt = time.Now()
	return nil
}

// BeginEntityType records the entity type now in flight.
func (j *SyncJob) BeginEntityType(entityType string, total int) {
	j.currentEntity = entityType
	j.entityProgress = &EntityProgress{EntityType: entityType, Total: total}
	j.updatedAt = time.Now()
}

// UpdateEntityProgress records sub-progress for the entity type in flight
// and recomputes the overall percent from completed entity types plus the
// fraction of the current one.
func (j *SyncJob) UpdateEntityProgress(completedTypes, processed, total int) {
	if j.entityProgress != nil {
		j.entityProgress.Processed = processed
		j.entityProgress.Total = total
	}

	perType := 100.0 / float64(len(j.entityTypes))
	percent := float64(completedTypes) * perType
	if total > 0 {
		percent += perType * float64(processed) / float64(total)
	}
	if percent > 100 {
		percent = 100
	}
	j.progress = int(percent)
	j.updatedAt = time.Now()
}

// FinishEntityType folds the finished entity type into the overall percent
// and clears sub-progress.
func (j *SyncJob) FinishEntityType(completedTypes int) {
	j.entityProgress = nil

	perType := 100.0 / float64(len(j.entityTypes))
	percent := float64(completedTypes) * perType
	if percent > 100 {
		percent = 100
	}
	j.progress = int(percent)
	j.updatedAt = time.Now()
}

// RecordBatchResult accumulates processed and error counts from a batch run.
func (j *SyncJob) RecordBatchResult(processed, errors int, lastError string) {
	j.processedCount += processed
	j.errorCount += errors
	if lastError != "" {
		j.lastError = &lastError
	}
	j.updatedAt = time.Now()
}

// RecordEntityError counts an entity-type-level failure. The job proceeds
// to the next entity type; entity-type failures are non-fatal to the job.
func (j *SyncJob) RecordEntityError(message string) {
	j.errorCount++
	j.lastError = &message
	j.updatedAt = time.Now()
}

// Equal compares two SyncJob entities by identity.
func (j *SyncJob) Equal(other *SyncJob) bool {
	if other == nil {
		return false
	}
	return j.id == other.id
}
