package memory

import (
	"context"
	"testing"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/port/outbound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(dimensions, axis int) []float64 {
	v := make([]float64, dimensions)
	v[axis] = 1
	return v
}

func TestVectorStore_UpsertOverwrites(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "c-1", unitVector(4, 0), "first", nil)))
	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "c-1", unitVector(4, 1), "second", nil)))

	assert.Equal(t, 1, store.Count())
	record, err := store.Find(ctx, "contacts", "c-1")
	require.NoError(t, err)
	assert.Equal(t, "second", record.SourceText())
}

func TestVectorStore_FindUnknown(t *testing.T) {
	store := NewVectorStore()

	_, err := store.Find(context.Background(), "contacts", "missing")
	require.ErrorIs(t, err, domainerrors.ErrVectorNotFound)
}

func TestVectorStore_DeleteIsIdempotent(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "c-1", unitVector(4, 0), "", nil)))
	require.NoError(t, store.Delete(ctx, "contacts", "c-1"))
	require.NoError(t, store.Delete(ctx, "contacts", "c-1"))
	assert.Equal(t, 0, store.Count())
}

func TestVectorStore_SimilarityTieBreaksByInsertionOrder(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	// Two records at identical similarity to the query.
	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "older", unitVector(4, 0), "", nil)))
	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "newer", unitVector(4, 0), "", nil)))

	matches, err := store.SimilaritySearch(ctx, unitVector(4, 0), outbound.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "older", matches[0].Record.EntityID())
	assert.Equal(t, "newer", matches[1].Record.EntityID())
}

func TestVectorStore_SimilaritySkipsMismatchedDimensions(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "short", unitVector(2, 0), "", nil)))
	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "full", unitVector(4, 0), "", nil)))

	matches, err := store.SimilaritySearch(ctx, unitVector(4, 0), outbound.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "full", matches[0].Record.EntityID())
}

func TestVectorStore_UnavailableBackend(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "c-1", unitVector(4, 0), "Ada Lovelace", nil)))

	store.SetAvailable(false)

	_, err := store.SimilaritySearch(ctx, unitVector(4, 0), outbound.SearchOptions{Limit: 10})
	require.ErrorIs(t, err, domainerrors.ErrVectorBackendDown)

	// Text search keeps working while vectors are down.
	matches, err := store.TextSearch(ctx, "ada", 0.5, outbound.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.5, matches[0].Similarity, 1e-9)
}

func TestVectorStore_TextSearchFilters(t *testing.T) {
	store := NewVectorStore()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("contacts", "c-1", unitVector(4, 0), "Acme deal review", nil)))
	require.NoError(t, store.Upsert(ctx, entity.NewVectorRecord("deals", "d-1", unitVector(4, 1), "Acme renewal", nil)))

	matches, err := store.TextSearch(ctx, "ACME", 0.5, outbound.SearchOptions{TypeFilter: []string{"deals"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "d-1", matches[0].Record.EntityID())
}
