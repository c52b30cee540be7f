package entity

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntityTypeSystem tags history entries not tied to one entity type.
const HistoryEntityTypeSystem = "system"

// History actions recorded by the orchestrator.
const (
	HistoryActionStarted         = "started"
	HistoryActionEntityCompleted = "entity-completed"
	HistoryActionPaused          = "paused"
	HistoryActionStopped         = "stopped"
	HistoryActionCompleted       = "completed"
	HistoryActionFailed          = "failed"
	HistoryActionError           = "error"
)

// HistoryEntry is one append-only record of a notable job event. Entries are
// never mutated; the only deletion path is the age-based retention purge.
type HistoryEntry struct {
	id         uuid.UUID
	jobID      uuid.UUID
	entityType string
	action     string
	detail     string
	createdAt  time.Time
}

// NewHistoryEntry creates a history entry for a job event. An empty
// entityType is recorded as the system tag.
func NewHistoryEntry(jobID uuid.UUID, entityType, action, detail string) *HistoryEntry {
	if entityType == "" {
		entityType = HistoryEntityTypeSystem
	}
	return &HistoryEntry{
		id:         uuid.New(),
		jobID:      jobID,
		entityType: entityType,
		action:     action,
		detail:     detail,
		createdAt:  time.Now(),
	}
}

// RestoreHistoryEntry creates a HistoryEntry from stored data.
func RestoreHistoryEntry(
	id uuid.UUID,
	jobID uuid.UUID,
	entityType, action, detail string,
	createdAt time.Time,
) *HistoryEntry {
	return &HistoryEntry{
		id:         id,
		jobID:      jobID,
		entityType: entityType,
		action:     action,
		detail:     detail,
		createdAt:  createdAt,
	}
}

// ID returns the entry ID.
func (h *HistoryEntry) ID() uuid.UUID {
	return h.id
}

// JobID returns the owning job ID.
func (h *HistoryEntry) JobID() uuid.UUID {
	return h.jobID
}

// EntityType returns the tagged entity type, or the system tag.
func (h *HistoryEntry) EntityType() string {
	return h.entityType
}

// Action returns the recorded action.
func (h *HistoryEntry) Action() string {
	return h.action
}

// Detail returns the free-form detail text.
func (h *HistoryEntry) Detail() string {
	return h.detail
}

// CreatedAt returns the entry timestamp.
func (h *HistoryEntry) CreatedAt() time.Time {
	return h.createdAt
}
