package memory

import (
	"context"
	"testing"
	"time"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/domain/valueobject"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T, types ...string) *entity.SyncJob {
	t.Helper()
	return entity.NewSyncJob(valueobject.JobKindSync, types, entity.JobOptions{})
}

func TestJobStore_SaveAndFind(t *testing.T) {
	store := NewJobStore()
	job := newJob(t, "contacts")

	require.NoError(t, store.Save(context.Background(), job))

	found, err := store.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, job.ID(), found.ID())
	assert.Equal(t, valueobject.JobStatusPending, found.Status())
}

func TestJobStore_FindUnknown(t *testing.T) {
	store := NewJobStore()

	_, err := store.FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrJobNotFound)
}

func TestJobStore_UpdateUnknown(t *testing.T) {
	store := NewJobStore()

	err := store.Update(context.Background(), newJob(t, "contacts"))
	require.ErrorIs(t, err, domainerrors.ErrJobNotFound)
}

func TestJobStore_SnapshotsAreIsolated(t *testing.T) {
	store := NewJobStore()
	job := newJob(t, "contacts")
	require.NoError(t, store.Save(context.Background(), job))

	// Mutating the live entity must not change the stored record.
	require.NoError(t, job.Start())

	found, err := store.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusPending, found.Status())

	require.NoError(t, store.Update(context.Background(), job))
	found, err = store.FindByID(context.Background(), job.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusRunning, found.Status())
}

func TestJobStore_FindActiveFiltersTerminal(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	running := newJob(t, "contacts")
	require.NoError(t, running.Start())
	done := newJob(t, "deals")
	require.NoError(t, done.Start())
	require.NoError(t, done.Complete())
	pending := newJob(t, "tickets")

	for _, job := range []*entity.SyncJob{running, done, pending} {
		require.NoError(t, store.Save(ctx, job))
	}

	active, err := store.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// Submission order is preserved.
	assert.Equal(t, running.ID(), active[0].ID())
	assert.Equal(t, pending.ID(), active[1].ID())
}

func TestJobStore_HistoryNewestFirstWithLimit(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	jobID := uuid.New()

	for _, action := range []string{entity.HistoryActionStarted, entity.HistoryActionEntityCompleted, entity.HistoryActionCompleted} {
		require.NoError(t, store.AppendHistory(ctx, entity.NewHistoryEntry(jobID, "", action, "")))
	}

	entries, err := store.FindHistory(ctx, jobID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.HistoryActionCompleted, entries[0].Action())
	assert.Equal(t, entity.HistoryActionEntityCompleted, entries[1].Action())
}

func TestJobStore_PurgeHistoryBefore(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	jobID := uuid.New()

	old := entity.RestoreHistoryEntry(uuid.New(), jobID, "", entity.HistoryActionStarted, "", time.Now().Add(-48*time.Hour))
	recent := entity.NewHistoryEntry(jobID, "", entity.HistoryActionCompleted, "")
	require.NoError(t, store.AppendHistory(ctx, old))
	require.NoError(t, store.AppendHistory(ctx, recent))

	purged, err := store.PurgeHistoryBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	entries, err := store.FindHistory(ctx, jobID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.HistoryActionCompleted, entries[0].Action())
}
