// Package service metrics integration for job orchestration, implemented
// with OpenTelemetry counters and histograms.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names following OpenTelemetry semantic conventions.
const (
	JobsStartedCounterName      = "sync_jobs_started_total"
	JobsCompletedCounterName    = "sync_jobs_completed_total"
	JobsFailedCounterName       = "sync_jobs_failed_total"
	JobsPausedCounterName       = "sync_jobs_paused_total"
	ItemsProcessedCounterName   = "sync_items_processed_total"
	ItemErrorsCounterName       = "sync_item_errors_total"
	EntityDurationHistogramName = "sync_entity_type_duration_seconds"
	meterName                   = "entitysync/orchestrator"
)

// Attribute keys for consistent labeling.
const (
	AttrJobKind    = "job_kind"
	AttrEntityType = "entity_type"
)

// JobMetrics records orchestration metrics through OpenTelemetry.
type JobMetrics struct {
	jobsStarted    metric.Int64Counter
	jobsCompleted  metric.Int64Counter
	jobsFailed     metric.Int64Counter
	jobsPaused     metric.Int64Counter
	itemsProcessed metric.Int64Counter
	itemErrors     metric.Int64Counter
	entityDuration metric.Float64Histogram
}

// NewJobMetrics creates the instrument set on the global meter provider.
func NewJobMetrics() (*JobMetrics, error) {
	meter := otel.Meter(meterName)

	jobsStarted, err := meter.Int64Counter(JobsStartedCounterName,
		metric.WithDescription("Jobs that began execution"))
	if err != nil {
		return nil, err
	}
	jobsCompleted, err := meter.Int64Counter(JobsCompletedCounterName,
		metric.WithDescription("Jobs that reached completed status"))
	if err != nil {
		return nil, err
	}
	jobsFailed, err := meter.Int64Counter(JobsFailedCounterName,
		metric.WithDescription("Jobs that reached failed status"))
	if err != nil {
		return nil, err
	}
	jobsPaused, err := meter.Int64Counter(JobsPausedCounterName,
		metric.WithDescription("Jobs paused by a cancellation signal"))
	if err != nil {
		return nil, err
	}
	itemsProcessed, err := meter.Int64Counter(ItemsProcessedCounterName,
		metric.WithDescription("Items processed successfully"))
	if err != nil {
		return nil, err
	}
	itemErrors, err := meter.Int64Counter(ItemErrorsCounterName,
		metric.WithDescription("Item operations that failed"))
	if err != nil {
		return nil, err
	}
	entityDuration, err := meter.Float64Histogram(EntityDurationHistogramName,
		metric.WithDescription("Wall time spent processing one entity type"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &JobMetrics{
		jobsStarted:    jobsStarted,
		jobsCompleted:  jobsCompleted,
		jobsFailed:     jobsFailed,
		jobsPaused:     jobsPaused,
		itemsProcessed: itemsProcessed,
		itemErrors:     itemErrors,
		entityDuration: entityDuration,
	}, nil
}

// RecordJobStarted counts a job entering running status.
func (m *JobMetrics) RecordJobStarted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.jobsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrJobKind, kind)))
}

// RecordJobCompleted counts a job reaching completed status.
func (m *JobMetrics) RecordJobCompleted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.jobsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrJobKind, kind)))
}

// RecordJobFailed counts a job reaching failed status.
func (m *JobMetrics) RecordJobFailed(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.jobsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrJobKind, kind)))
}

// RecordJobPaused counts a job paused by a cancellation signal.
func (m *JobMetrics) RecordJobPaused(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.jobsPaused.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrJobKind, kind)))
}

// RecordEntityTypeResult records per-entity-type item counts and duration.
func (m *JobMetrics) RecordEntityTypeResult(
	ctx context.Context,
	kind, entityType string,
	processed, errors int,
	duration time.Duration,
) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrJobKind, kind),
		attribute.String(AttrEntityType, entityType),
	)
	m.itemsProcessed.Add(ctx, int64(processed), attrs)
	m.itemErrors.Add(ctx, int64(errors), attrs)
	m.entityDuration.Record(ctx, duration.Seconds(), attrs)
}
