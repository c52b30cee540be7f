package repository

import (
	"context"
	"fmt"
	"time"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/domain/valueobject"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLJobStore implements the JobStore interface on Postgres.
type PostgreSQLJobStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLJobStore creates a new PostgreSQL job store.
func NewPostgreSQLJobStore(pool *pgxpool.Pool) *PostgreSQLJobStore {
	return &PostgreSQLJobStore{pool: pool}
}

const jobColumns = `
	id, kind, entity_types, status,
	batch_size, concurrency, retry_attempts, retry_delay_ms, updated_since,
	progress, current_entity, entity_processed, entity_total,
	processed_count, error_count, last_error,
	started_at, completed_at, created_at, updated_at`

// Save inserts a new job record.
func (r *PostgreSQLJobStore) Save(ctx context.Context, job *entity.SyncJob) error {
	if job == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO entitysync.sync_jobs (` + jobColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	qi := GetQueryInterface(ctx, r.pool)
	_, err := qi.Exec(ctx, query, jobArgs(job)...)
	if err != nil {
		return WrapError(err, "save sync job")
	}
	return nil
}

// Update overwrites the stored record for the job's id.
func (r *PostgreSQLJobStore) Update(ctx context.Context, job *entity.SyncJob) error {
	if job == nil {
		return ErrInvalidArgument
	}

	query := `
		UPDATE entitysync.sync_jobs SET
			kind = $2, entity_types = $3, status = $4,
			batch_size = $5, concurrency = $6, retry_attempts = $7, retry_delay_ms = $8, updated_since = $9,
			progress = $10, current_entity = $11, entity_processed = $12, entity_total = $13,
			processed_count = $14, error_count = $15, last_error = $16,
			started_at = $17, completed_at = $18, created_at = $19, updated_at = $20
		WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, query, jobArgs(job)...)
	if err != nil {
		return WrapError(err, "update sync job")
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrJobNotFound
	}
	return nil
}

// FindByID returns the stored job, or ErrJobNotFound.
func (r *PostgreSQLJobStore) FindByID(ctx context.Context, jobID uuid.UUID) (*entity.SyncJob, error) {
	if jobID == uuid.Nil {
		return nil, ErrInvalidArgument
	}

	query := `SELECT ` + jobColumns + ` FROM entitysync.sync_jobs WHERE id = $1`

	qi := GetQueryInterface(ctx, r.pool)
	job, err := scanJob(qi.QueryRow(ctx, query, jobID))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, domainerrors.ErrJobNotFound
		}
		return nil, WrapError(err, "find sync job by id")
	}
	return job, nil
}

// FindActive returns pending, running, and paused jobs in submission order.
func (r *PostgreSQLJobStore) FindActive(ctx context.Context) ([]*entity.SyncJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM entitysync.sync_jobs
		WHERE status IN ('pending', 'running', 'paused')
		ORDER BY created_at ASC`

	qi := GetQueryInterface(ctx, r.pool)
	rows, err := qi.Query(ctx, query)
	if err != nil {
		return nil, WrapError(err, "find active sync jobs")
	}
	defer rows.Close()

	var jobs []*entity.SyncJob
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, WrapError(scanErr, "scan active sync job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "iterate active sync jobs")
	}
	return jobs, nil
}

// AppendHistory inserts one history entry.
func (r *PostgreSQLJobStore) AppendHistory(ctx context.Context, entry *entity.HistoryEntry) error {
	if entry == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO entitysync.job_history (id, job_id, entity_type, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	qi := GetQueryInterface(ctx, r.pool)
	_, err := qi.Exec(ctx, query,
		entry.ID(), entry.JobID(), entry.EntityType(), entry.Action(), entry.Detail(), entry.CreatedAt())
	if err != nil {
		return WrapError(err, "append job history")
	}
	return nil
}

// FindHistory returns up to limit entries for the job, newest first.
func (r *PostgreSQLJobStore) FindHistory(ctx context.Context, jobID uuid.UUID, limit int) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, job_id, entity_type, action, detail, created_at
		FROM entitysync.job_history
		WHERE job_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	qi := GetQueryInterface(ctx, r.pool)
	rows, err := qi.Query(ctx, query, jobID, limit)
	if err != nil {
		return nil, WrapError(err, "find job history")
	}
	defer rows.Close()

	var entries []*entity.HistoryEntry
	for rows.Next() {
		var (
			id, entryJobID          uuid.UUID
			entityType, action, det string
			createdAt               time.Time
		)
		if scanErr := rows.Scan(&id, &entryJobID, &entityType, &action, &det, &createdAt); scanErr != nil {
			return nil, WrapError(scanErr, "scan job history entry")
		}
		entries = append(entries, entity.RestoreHistoryEntry(id, entryJobID, entityType, action, det, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "iterate job history")
	}
	return entries, nil
}

// PurgeHistoryBefore deletes entries recorded before the cutoff and returns
// the number deleted.
func (r *PostgreSQLJobStore) PurgeHistoryBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM entitysync.job_history WHERE created_at < $1`

	qi := GetQueryInterface(ctx, r.pool)
	tag, err := qi.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, WrapError(err, "purge job history")
	}
	return int(tag.RowsAffected()), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func jobArgs(job *entity.SyncJob) []any {
	options := job.Options()
	var entityProcessed, entityTotal int
	if p := job.EntityProgress(); p != nil {
		entityProcessed = p.Processed
		entityTotal = p.Total
	}
	return []any{
		job.ID(),
		job.Kind().String(),
		job.EntityTypes(),
		job.Status().String(),
		options.BatchSize,
		options.Concurrency,
		options.RetryAttempts,
		options.RetryDelay.Milliseconds(),
		options.UpdatedSince,
		job.Progress(),
		job.CurrentEntityType(),
		entityProcessed,
		entityTotal,
		job.ProcessedCount(),
		job.ErrorCount(),
		job.LastError(),
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	}
}

func scanJob(row rowScanner) (*entity.SyncJob, error) {
	var (
		id                     uuid.UUID
		kindStr, statusStr     string
		entityTypes            []string
		batchSize              int
		concurrency            int
		retryAttempts          int
		retryDelayMS           int64
		updatedSince           *time.Time
		progress               int
		currentEntity          string
		entityProcessed        int
		entityTotal            int
		processedCount         int
		errorCount             int
		lastError              *string
		startedAt, completedAt *time.Time
		createdAt, updatedAt   time.Time
	)

	err := row.Scan(
		&id, &kindStr, &entityTypes, &statusStr,
		&batchSize, &concurrency, &retryAttempts, &retryDelayMS, &updatedSince,
		&progress, &currentEntity, &entityProcessed, &entityTotal,
		&processedCount, &errorCount, &lastError,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	kind, err := valueobject.NewJobKind(kindStr)
	if err != nil {
		return nil, fmt.Errorf("stored job %s has invalid kind: %w", id, err)
	}
	status, err := valueobject.NewJobStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("stored job %s has invalid status: %w", id, err)
	}

	var entityProgress *entity.EntityProgress
	if currentEntity != "" {
		entityProgress = &entity.EntityProgress{
			EntityType: currentEntity,
			Processed:  entityProcessed,
			Total:      entityTotal,
		}
	}

	options := entity.JobOptions{
		BatchSize:     batchSize,
		Concurrency:   concurrency,
		RetryAttempts: retryAttempts,
		RetryDelay:    time.Duration(retryDelayMS) * time.Millisecond,
		UpdatedSince:  updatedSince,
	}

	return entity.RestoreSyncJob(
		id, kind, entityTypes, status, options,
		progress, currentEntity, entityProgress,
		processedCount, errorCount, lastError,
		startedAt, completedAt, createdAt, updatedAt,
	), nil
}
