package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"entitysync/internal/application/common/logging"
	"entitysync/internal/application/common/slogger"
	"entitysync/internal/application/dto"
	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/domain/valueobject"
	"entitysync/internal/port/outbound"

	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds history queries when the caller gives no limit.
const DefaultHistoryLimit = 50

const stoppedByCallerMessage = "job stopped by caller"

// JobOrchestratorDeps carries the collaborators a JobOrchestrator needs.
type JobOrchestratorDeps struct {
	Store      outbound.JobStore
	Provider   outbound.EntityProvider
	Upserter   outbound.Upserter
	Vectorizer outbound.Vectorizer
	Vectors    outbound.VectorStore
	Metrics    *JobMetrics // optional
}

// JobOrchestrator owns the job state machine. Each submitted job runs as an
// independent background goroutine; within one job, execution is strictly
// sequential. The orchestrator is the only writer of a job's record while
// it executes.
type JobOrchestrator struct {
	store      outbound.JobStore
	provider   outbound.EntityProvider
	upserter   outbound.Upserter
	vectorizer outbound.Vectorizer
	vectors    outbound.VectorStore
	registry   *CancellationRegistry
	batches    *BatchProcessor
	bus        *EventBus
	metrics    *JobMetrics
	wg         sync.WaitGroup
}

// NewJobOrchestrator creates an orchestrator with its own event bus and
// cancellation registry. All deps except Metrics must be non-nil.
func NewJobOrchestrator(deps JobOrchestratorDeps) *JobOrchestrator {
	if deps.Store == nil {
		panic("store cannot be nil")
	}
	if deps.Provider == nil {
		panic("provider cannot be nil")
	}
	if deps.Upserter == nil {
		panic("upserter cannot be nil")
	}
	if deps.Vectorizer == nil {
		panic("vectorizer cannot be nil")
	}
	if deps.Vectors == nil {
		panic("vectors cannot be nil")
	}

	return &JobOrchestrator{
		store:      deps.Store,
		provider:   deps.Provider,
		upserter:   deps.Upserter,
		vectorizer: deps.Vectorizer,
		vectors:    deps.Vectors,
		registry:   NewCancellationRegistry(),
		batches:    NewBatchProcessor(),
		bus:        NewEventBus(),
		metrics:    deps.Metrics,
	}
}

// Events returns the orchestrator's lifecycle event bus.
func (o *JobOrchestrator) Events() *EventBus {
	return o.bus
}

// Registry returns the cancellation registry, exposed for control surfaces.
func (o *JobOrchestrator) Registry() *CancellationRegistry {
	return o.registry
}

// SubmitJob validates the request, persists a pending record, registers a
// cancellation token, and schedules background execution. It returns the
// new job id before any item is processed and never blocks on processing.
// Errors during background execution are surfaced only through
// GetJobProgress and GetJobHistory.
func (o *JobOrchestrator) SubmitJob(ctx context.Context, request dto.SubmitJobRequest) (uuid.UUID, error) {
	kind, err := valueobject.NewJobKind(request.Kind)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", domainerrors.ErrInvalidInput, err)
	}
	if len(request.EntityTypes) == 0 {
		return uuid.Nil, domainerrors.ErrEmptyEntityTypes
	}

	job := entity.NewSyncJob(kind, request.EntityTypes, dto.ParseJobOptions(request.Options))
	if err := o.store.Save(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("save job: %w", err)
	}

	token := o.registry.Register(job.ID())

	// Background execution outlives the submission call, so it runs on a
	// fresh context carrying only the correlation id.
	bgCtx := logging.WithCorrelationID(context.Background(), logging.CorrelationIDFromContext(ctx))
	o.wg.Add(1)
	go o.execute(bgCtx, job, token)

	slogger.Info(ctx, "job submitted", slogger.Fields3(
		"job_id", job.ID().String(),
		"kind", kind.String(),
		"entity_types", job.EntityTypes(),
	))
	return job.ID(), nil
}

// PauseJob requests a cooperative pause. The signal takes effect at the
// next batch boundary; the in-flight batch always runs to completion.
func (o *JobOrchestrator) PauseJob(ctx context.Context, jobID uuid.UUID) error {
	return o.cancel(ctx, jobID, valueobject.CancelModePause)
}

// StopJob terminates the job. The persisted status becomes failed.
func (o *JobOrchestrator) StopJob(ctx context.Context, jobID uuid.UUID) error {
	return o.cancel(ctx, jobID, valueobject.CancelModeStop)
}

// cancel signals and removes the job's token, then persists the requested
// status and appends a history entry. Idempotent: cancelling an unknown or
// already-finished job is not an error to the caller.
func (o *JobOrchestrator) cancel(ctx context.Context, jobID uuid.UUID, mode valueobject.CancelMode) error {
	tokenFound := o.registry.Signal(jobID)

	job, err := o.store.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrJobNotFound) {
			slogger.Warn(ctx, "cancel requested for unknown job", slogger.Fields2(
				"job_id", jobID.String(),
				"mode", mode.String(),
			))
			return nil
		}
		return fmt.Errorf("find job: %w", err)
	}

	var transitionErr error
	switch mode {
	case valueobject.CancelModePause:
		transitionErr = job.Pause()
	case valueobject.CancelModeStop:
		transitionErr = job.Fail(stoppedByCallerMessage)
	}
	if transitionErr != nil {
		// Already finished or paused; nothing to persist, not fatal.
		slogger.Info(ctx, "cancel had no effect", slogger.Fields3(
			"job_id", jobID.String(),
			"mode", mode.String(),
			"status", job.Status().String(),
		))
		return nil
	}

	if err := o.persist(ctx, job); err != nil {
		return fmt.Errorf("persist cancelled job: %w", err)
	}

	action := entity.HistoryActionPaused
	eventName := EventJobPaused
	if mode == valueobject.CancelModeStop {
		action = entity.HistoryActionStopped
		eventName = EventJobStopped
	}
	o.appendHistory(ctx, job, "", action, fmt.Sprintf("%s requested by caller (token found: %t)", mode, tokenFound))
	o.publish(ctx, eventName, job, "", mode.String())

	if mode == valueobject.CancelModePause {
		o.metrics.RecordJobPaused(ctx, job.Kind().String())
	}
	return nil
}

// GetJobProgress returns a snapshot of the job, or nil when the id is unknown.
func (o *JobOrchestrator) GetJobProgress(ctx context.Context, jobID uuid.UUID) (*dto.JobSnapshot, error) {
	job, err := o.store.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrJobNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return dto.JobToSnapshot(job), nil
}

// ListActiveJobs returns snapshots of all pending, running, and paused jobs.
func (o *JobOrchestrator) ListActiveJobs(ctx context.Context) ([]*dto.JobSnapshot, error) {
	jobs, err := o.store.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	snapshots := make([]*dto.JobSnapshot, len(jobs))
	for i, job := range jobs {
		snapshots[i] = dto.JobToSnapshot(job)
	}
	return snapshots, nil
}

// GetJobHistory returns up to limit history entries for the job, newest first.
func (o *JobOrchestrator) GetJobHistory(ctx context.Context, jobID uuid.UUID, limit int) ([]dto.HistoryEntryDTO, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := o.store.FindHistory(ctx, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	result := make([]dto.HistoryEntryDTO, len(entries))
	for i, entry := range entries {
		result[i] = dto.HistoryToDTO(entry)
	}
	return result, nil
}

// PurgeHistory deletes history entries older than the retention window.
func (o *JobOrchestrator) PurgeHistory(ctx context.Context, retention time.Duration) (int, error) {
	return o.store.PurgeHistoryBefore(ctx, time.Now().Add(-retention))
}

// Shutdown signals every registered token and waits for running jobs to
// reach a suspension point, bounded by ctx.
func (o *JobOrchestrator) Shutdown(ctx context.Context) error {
	o.registry.SignalAll()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute is the background loop for one job. Entity types are processed in
// submission order; an error escaping one entity type is recorded and the
// job proceeds to the next. Only a panic escaping the loop itself marks the
// job failed.
func (o *JobOrchestrator) execute(ctx context.Context, job *entity.SyncJob, token *CancelToken) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.failJob(ctx, job, fmt.Sprintf("job execution panicked: %v", r))
		}
	}()

	// A stop issued between submission and execution wins; the cancel path
	// has already persisted the terminal status. A pause signal on a job
	// that never ran is honored at the first loop boundary instead.
	if token.Signaled() {
		stored, findErr := o.store.FindByID(ctx, job.ID())
		if findErr != nil || stored.Status().IsTerminal() {
			return
		}
	}

	if err := job.Start(); err != nil {
		return
	}
	if err := o.persist(ctx, job); err != nil {
		o.failJob(ctx, job, fmt.Sprintf("persist running status: %v", err))
		return
	}
	o.appendHistory(ctx, job, "", entity.HistoryActionStarted, fmt.Sprintf("processing %d entity types", len(job.EntityTypes())))
	o.publish(ctx, EventJobStarted, job, "", "")
	o.metrics.RecordJobStarted(ctx, job.Kind().String())

	completedTypes := 0
	for _, entityType := range job.EntityTypes() {
		if token.Signaled() {
			o.pauseJob(ctx, job)
			return
		}

		started := time.Now()
		result, err := o.processEntityType(ctx, job, entityType, completedTypes, token)
		if err != nil {
			// Entity-type-level failure is non-fatal to the job.
			job.RecordEntityError(err.Error())
			o.appendHistory(ctx, job, entityType, entity.HistoryActionError, err.Error())
			o.publish(ctx, EventJobError, job, entityType, err.Error())
			completedTypes++
			job.FinishEntityType(completedTypes)
			if persistErr := o.persist(ctx, job); persistErr != nil {
				slogger.ErrorWithError(ctx, persistErr, "failed to persist entity error", slogger.Field("job_id", job.ID().String()))
			}
			continue
		}

		job.RecordBatchResult(result.Processed, result.Errors, result.LastError)
		if result.Cancelled {
			if persistErr := o.persist(ctx, job); persistErr != nil {
				slogger.ErrorWithError(ctx, persistErr, "failed to persist partial counts", slogger.Field("job_id", job.ID().String()))
			}
			o.pauseJob(ctx, job)
			return
		}

		completedTypes++
		job.FinishEntityType(completedTypes)
		if persistErr := o.persist(ctx, job); persistErr != nil {
			slogger.ErrorWithError(ctx, persistErr, "failed to persist progress", slogger.Field("job_id", job.ID().String()))
		}

		detail := fmt.Sprintf("processed=%d errors=%d", result.Processed, result.Errors)
		o.appendHistory(ctx, job, entityType, entity.HistoryActionEntityCompleted, detail)
		o.publish(ctx, EventEntityCompleted, job, entityType, detail)
		o.metrics.RecordEntityTypeResult(ctx, job.Kind().String(), entityType, result.Processed, result.Errors, time.Since(started))
	}

	o.completeJob(ctx, job)
}

// processEntityType fetches candidates for one entity type and runs them
// through the batch processor.
func (o *JobOrchestrator) processEntityType(
	ctx context.Context,
	job *entity.SyncJob,
	entityType string,
	completedTypes int,
	token *CancelToken,
) (BatchResult, error) {
	if !o.provider.Supports(entityType) {
		return BatchResult{}, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedEntityType, entityType)
	}

	filter := outbound.FetchFilter{UpdatedSince: job.Options().UpdatedSince}
	items, err := o.provider.FetchPage(ctx, entityType, filter)
	if err != nil {
		return BatchResult{}, fmt.Errorf("fetch %s candidates: %w", entityType, err)
	}

	job.BeginEntityType(entityType, len(items))
	if persistErr := o.persist(ctx, job); persistErr != nil {
		slogger.ErrorWithError(ctx, persistErr, "failed to persist sub-progress", slogger.Field("job_id", job.ID().String()))
	}

	operation := o.itemOperation(job.Kind(), entityType)
	onProgress := func(processed, total int) {
		job.UpdateEntityProgress(completedTypes, processed, total)
		if persistErr := o.persist(ctx, job); persistErr != nil {
			slogger.ErrorWithError(ctx, persistErr, "failed to persist batch progress", slogger.Field("job_id", job.ID().String()))
		}
	}

	return o.batches.Run(ctx, items, job.Options().BatchSize, operation, token, onProgress), nil
}

// itemOperation selects the per-item work for the job kind: field-level
// upserts for sync jobs, embed-and-store for embedding jobs.
func (o *JobOrchestrator) itemOperation(kind valueobject.JobKind, entityType string) ItemOperation {
	if kind == valueobject.JobKindSync {
		return func(ctx context.Context, record entity.EntityRecord) error {
			return o.upserter.Apply(ctx, entityType, record)
		}
	}
	return func(ctx context.Context, record entity.EntityRecord) error {
		text := record.EmbeddingText()
		vector, err := o.vectorizer.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed %s/%s: %w", entityType, record.ID, err)
		}
		normalized, err := normalizeVector(vector)
		if err != nil {
			return fmt.Errorf("normalize %s/%s: %w", entityType, record.ID, err)
		}
		return o.vectors.Upsert(ctx, entity.NewVectorRecord(entityType, record.ID, normalized, text, nil))
	}
}

// pauseJob persists paused status after a cancellation signal was observed
// at a boundary. If the cancel path already persisted a terminal status the
// transition fails and nothing is overwritten; if it already persisted
// paused, only the counts are refreshed and the history entry, event, and
// metric are not repeated.
func (o *JobOrchestrator) pauseJob(ctx context.Context, job *entity.SyncJob) {
	o.registry.Remove(job.ID())

	announced := false
	if stored, err := o.store.FindByID(ctx, job.ID()); err == nil {
		// A stop that won the race has already finished the job.
		if stored.Status().IsTerminal() {
			return
		}
		announced = stored.Status() == valueobject.JobStatusPaused
	}
	if err := job.Pause(); err != nil {
		return
	}
	if err := o.persist(ctx, job); err != nil {
		slogger.ErrorWithError(ctx, err, "failed to persist paused status", slogger.Field("job_id", job.ID().String()))
		return
	}
	if announced {
		return
	}
	o.appendHistory(ctx, job, "", entity.HistoryActionPaused, "cancellation signal honored at batch boundary")
	o.publish(ctx, EventJobPaused, job, "", "")
	o.metrics.RecordJobPaused(ctx, job.Kind().String())
}

func (o *JobOrchestrator) completeJob(ctx context.Context, job *entity.SyncJob) {
	o.registry.Remove(job.ID())

	// A pause persisted while the final batch was in flight sticks; the
	// final counts land under the paused status instead.
	if stored, err := o.store.FindByID(ctx, job.ID()); err == nil && stored.Status() == valueobject.JobStatusPaused {
		o.pauseJob(ctx, job)
		return
	}

	if err := job.Complete(); err != nil {
		return
	}
	if err := o.persist(ctx, job); err != nil {
		slogger.ErrorWithError(ctx, err, "failed to persist completed status", slogger.Field("job_id", job.ID().String()))
		return
	}
	detail := fmt.Sprintf("processed=%d errors=%d", job.ProcessedCount(), job.ErrorCount())
	o.appendHistory(ctx, job, "", entity.HistoryActionCompleted, detail)
	o.publish(ctx, EventJobCompleted, job, "", detail)
	o.metrics.RecordJobCompleted(ctx, job.Kind().String())
}

func (o *JobOrchestrator) failJob(ctx context.Context, job *entity.SyncJob, message string) {
	o.registry.Remove(job.ID())

	if err := job.Fail(message); err != nil {
		return
	}
	if err := o.persist(ctx, job); err != nil {
		slogger.ErrorWithError(ctx, err, "failed to persist failed status", slogger.Field("job_id", job.ID().String()))
		return
	}
	o.appendHistory(ctx, job, "", entity.HistoryActionFailed, message)
	o.publish(ctx, EventJobFailed, job, "", message)
	o.metrics.RecordJobFailed(ctx, job.Kind().String())
}

// persist writes the job record, refusing any write that would move the
// stored status backward. A concurrent cancel call may have persisted
// paused or failed while the execution loop still holds a running copy;
// its progress writes are dropped until the loop observes the signal at
// the next boundary. The orchestrator goroutine and the cancel path are
// the only writers for a job id, so this re-read guard is enough.
func (o *JobOrchestrator) persist(ctx context.Context, job *entity.SyncJob) error {
	stored, err := o.store.FindByID(ctx, job.ID())
	if err == nil && stored.Status() != job.Status() && !stored.Status().CanTransitionTo(job.Status()) {
		return nil
	}
	return o.store.Update(ctx, job)
}

func (o *JobOrchestrator) appendHistory(ctx context.Context, job *entity.SyncJob, entityType, action, detail string) {
	entry := entity.NewHistoryEntry(job.ID(), entityType, action, detail)
	if err := o.store.AppendHistory(ctx, entry); err != nil {
		slogger.ErrorWithError(ctx, err, "failed to append history", slogger.Fields2(
			"job_id", job.ID().String(),
			"action", action,
		))
	}
}

func (o *JobOrchestrator) publish(ctx context.Context, eventName string, job *entity.SyncJob, entityType, detail string) {
	o.bus.Publish(ctx, JobEvent{
		Name:       eventName,
		JobID:      job.ID().String(),
		Kind:       job.Kind().String(),
		EntityType: entityType,
		Detail:     detail,
		Counts: map[string]int{
			"processed": job.ProcessedCount(),
			"errors":    job.ErrorCount(),
			"progress":  job.Progress(),
		},
	})
}
