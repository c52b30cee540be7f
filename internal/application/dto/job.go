package dto

import (
	"time"

	"entitysync/internal/domain/entity"
)

// SubmitJobRequest carries a job submission. Options is the raw option map
// from the caller; recognized keys are extracted and the rest are ignored.
type SubmitJobRequest struct {
	Kind        string            `json:"kind"`
	EntityTypes []string          `json:"entity_types"`
	Options     map[string]string `json:"options,omitempty"`
}

// EntityProgressDTO is per-entity-type sub-progress for the type in flight.
type EntityProgressDTO struct {
	EntityType string `json:"entity_type"`
	Processed  int    `json:"processed"`
	Total      int    `json:"total"`
}

// JobSnapshot is the externally visible view of a job record.
type JobSnapshot struct {
	ID                string             `json:"id"`
	Kind              string             `json:"kind"`
	EntityTypes       []string           `json:"entity_types"`
	Status            string             `json:"status"`
	Progress          int                `json:"progress"`
	CurrentEntityType string             `json:"current_entity_type,omitempty"`
	EntityProgress    *EntityProgressDTO `json:"entity_progress,omitempty"`
	ProcessedCount    int                `json:"processed_count"`
	ErrorCount        int                `json:"error_count"`
	LastError         string             `json:"last_error,omitempty"`
	StartedAt         *time.Time         `json:"started_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// HistoryEntryDTO is the externally visible view of one history entry.
type HistoryEntryDTO struct {
	JobID      string    `json:"job_id"`
	EntityType string    `json:"entity_type"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// JobToSnapshot converts a job entity to its snapshot DTO.
func JobToSnapshot(job *entity.SyncJob) *JobSnapshot {
	snapshot := &JobSnapshot{
		ID:                job.ID().String(),
		Kind:              job.Kind().String(),
		EntityTypes:       job.EntityTypes(),
		Status:            job.Status().String(),
		Progress:          job.Progress(),
		CurrentEntityType: job.CurrentEntityType(),
		ProcessedCount:    job.ProcessedCount(),
		ErrorCount:        job.ErrorCount(),
		StartedAt:         job.StartedAt(),
		CompletedAt:       job.CompletedAt(),
		CreatedAt:         job.CreatedAt(),
	}
	if lastErr := job.LastError(); lastErr != nil {
		snapshot.LastError = *lastErr
	}
	if ep := job.EntityProgress(); ep != nil {
		snapshot.EntityProgress = &EntityProgressDTO{
			EntityType: ep.EntityType,
			Processed:  ep.Processed,
			Total:      ep.Total,
		}
	}
	return snapshot
}

// HistoryToDTO converts a history entry entity to its DTO.
func HistoryToDTO(entry *entity.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		JobID:      entry.JobID().String(),
		EntityType: entry.EntityType(),
		Action:     entry.Action(),
		Detail:     entry.Detail(),
		Timestamp:  entry.CreatedAt(),
	}
}
