package service

import (
	"context"

	"entitysync/internal/application/common/slogger"
	"entitysync/internal/domain/entity"
)

// ItemOperation applies one unit of work to a single entity record.
type ItemOperation func(ctx context.Context, record entity.EntityRecord) error

// ProgressFunc receives (processedSoFar, total) after each batch.
type ProgressFunc func(processed, total int)

// BatchResult aggregates the outcome of one BatchProcessor run.
type BatchResult struct {
	// Processed counts items whose operation succeeded.
	Processed int
	// Errors counts items whose operation failed.
	Errors int
	// LastError is the message of the most recent item failure, if any.
	LastError string
	// Cancelled is true when the run stopped at a batch boundary because
	// the token was signaled; counts are partial. The caller decides the
	// resulting job status.
	Cancelled bool
}

// BatchProcessor chunks a list of candidate items, applies a per-item
// operation, aggregates processed/error counts, and reports progress after
// each chunk. Execution is sequential within a chunk and across chunks,
// bounding load on the external collaborator. The concurrency job option is
// reserved for future parallel item execution within a chunk.
type BatchProcessor struct{}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor() *BatchProcessor {
	return &BatchProcessor{}
}

// Run splits items into consecutive chunks of batchSize (last chunk may be
// smaller) and applies operation to each item. A single item failure is
// caught locally: errors is incremented, lastError recorded, and the run
// continues with the next item. The cancellation token is checked before
// each chunk only; a signaled token stops the run with partial counts.
func (p *BatchProcessor) Run(
	ctx context.Context,
	items []entity.EntityRecord,
	batchSize int,
	operation ItemOperation,
	token *CancelToken,
	onProgress ProgressFunc,
) BatchResult {
	var result BatchResult
	if batchSize < 1 {
		batchSize = 1
	}
	total := len(items)

	for start := 0; start < total; start += batchSize {
		if token != nil && token.Signaled() {
			result.Cancelled = true
			return result
		}

		end := start + batchSize
		if end > total {
			end = total
		}

		for _, item := range items[start:end] {
			if err := operation(ctx, item); err != nil {
				result.Errors++
				result.LastError = err.Error()
				slogger.Warn(ctx, "item operation failed", slogger.Fields2(
					"entity_id", item.ID,
					"error", err.Error(),
				))
				continue
			}
			result.Processed++
		}

		if onProgress != nil {
			onProgress(result.Processed+result.Errors, total)
		}
	}

	return result
}
