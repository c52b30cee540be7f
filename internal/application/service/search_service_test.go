package service

import (
	"context"
	"math"
	"testing"

	"entitysync/internal/adapter/outbound/embeddings/simple"
	"entitysync/internal/adapter/outbound/memory"
	"entitysync/internal/application/dto"
	domainerrors "entitysync/internal/domain/errors/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimensions = 8

func newSearchFixture(t *testing.T) (*VectorSearchService, *memory.VectorStore) {
	t.Helper()
	vectors := memory.NewVectorStore()
	return NewVectorSearchService(vectors, simple.NewVectorizer(testDimensions)), vectors
}

func axisVector(axis int) []float64 {
	v := make([]float64, testDimensions)
	v[axis] = 1
	return v
}

func storeVector(t *testing.T, svc *VectorSearchService, entityType, entityID string, vector []float64, text string) {
	t.Helper()
	require.NoError(t, svc.UpsertVector(context.Background(), dto.VectorRecordDTO{
		EntityType: entityType,
		EntityID:   entityID,
		Vector:     vector,
		SourceText: text,
	}))
}

func TestSearchService_UpsertNormalizesVector(t *testing.T) {
	svc, _ := newSearchFixture(t)

	// Magnitude 5 on one axis normalizes to a unit vector.
	scaled := axisVector(0)
	scaled[0] = 5
	storeVector(t, svc, "contacts", "c-1", scaled, "Ada Lovelace")

	record, err := svc.GetVector(context.Background(), "contacts", "c-1")
	require.NoError(t, err)
	require.NotNil(t, record)

	var sum float64
	for _, v := range record.Vector {
		sum += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-9)
}

func TestSearchService_UpsertRejectsBadVectors(t *testing.T) {
	svc, _ := newSearchFixture(t)

	err := svc.UpsertVector(context.Background(), dto.VectorRecordDTO{
		EntityType: "contacts",
		EntityID:   "c-1",
		Vector:     []float64{1, 2},
	})
	require.ErrorIs(t, err, domainerrors.ErrDimensionMismatch)

	err = svc.UpsertVector(context.Background(), dto.VectorRecordDTO{
		EntityType: "contacts",
		EntityID:   "c-1",
		Vector:     make([]float64, testDimensions),
	})
	require.ErrorIs(t, err, domainerrors.ErrZeroVector)

	err = svc.UpsertVector(context.Background(), dto.VectorRecordDTO{
		EntityID: "c-1",
		Vector:   axisVector(0),
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestSearchService_SelfMatchAtThresholdOne(t *testing.T) {
	svc, _ := newSearchFixture(t)
	storeVector(t, svc, "contacts", "c-1", axisVector(0), "Ada Lovelace")

	response, err := svc.Search(context.Background(), dto.SearchRequest{
		QueryVector: axisVector(0),
		Threshold:   1.0,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "c-1", response.Results[0].EntityID)
	assert.InDelta(t, 1.0, response.Results[0].Similarity, 1e-9)
	assert.False(t, response.Degraded)
}

func TestSearchService_RankingAndLimit(t *testing.T) {
	svc, _ := newSearchFixture(t)

	storeVector(t, svc, "contacts", "exact", axisVector(0), "exact match")
	storeVector(t, svc, "contacts", "orthogonal", axisVector(1), "unrelated")
	// 45 degrees off the query axis.
	diagonal := make([]float64, testDimensions)
	diagonal[0], diagonal[1] = 1, 1
	storeVector(t, svc, "contacts", "close", diagonal, "close match")

	response, err := svc.Search(context.Background(), dto.SearchRequest{
		QueryVector: axisVector(0),
		Threshold:   0.1,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 2)
	assert.Equal(t, "exact", response.Results[0].EntityID)
	assert.Equal(t, "close", response.Results[1].EntityID)

	limited, err := svc.Search(context.Background(), dto.SearchRequest{
		QueryVector: axisVector(0),
		Threshold:   0.1,
		Limit:       1,
	})
	require.NoError(t, err)
	require.Len(t, limited.Results, 1)
	assert.Equal(t, "exact", limited.Results[0].EntityID)
}

func TestSearchService_TypeFilter(t *testing.T) {
	svc, _ := newSearchFixture(t)
	storeVector(t, svc, "contacts", "c-1", axisVector(0), "a contact")
	storeVector(t, svc, "deals", "d-1", axisVector(0), "a deal")

	response, err := svc.Search(context.Background(), dto.SearchRequest{
		QueryVector: axisVector(0),
		TypeFilter:  []string{"deals"},
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "deals", response.Results[0].EntityType)
}

func TestSearchService_TextQueryIsEmbedded(t *testing.T) {
	svc, _ := newSearchFixture(t)
	storeVector(t, svc, "contacts", "c-1", axisVector(0), "Ada Lovelace")

	// Whatever the text embeds to, a threshold of -1 admits everything.
	response, err := svc.Search(context.Background(), dto.SearchRequest{
		QueryText: "mathematician",
		Threshold: -1,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 1)
	assert.False(t, response.Degraded)
}

func TestSearchService_DegradesToSubstringMatch(t *testing.T) {
	svc, vectors := newSearchFixture(t)
	storeVector(t, svc, "contacts", "c-1", axisVector(0), "Ada Lovelace, analyst")
	storeVector(t, svc, "contacts", "c-2", axisVector(1), "Charles Babbage")

	vectors.SetAvailable(false)

	response, err := svc.Search(context.Background(), dto.SearchRequest{QueryText: "lovelace"})
	require.NoError(t, err)
	assert.True(t, response.Degraded)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "c-1", response.Results[0].EntityID)
	assert.InDelta(t, TextFallbackScore, response.Results[0].Similarity, 1e-9)
}

func TestSearchService_BackendDownWithVectorQueryFails(t *testing.T) {
	svc, vectors := newSearchFixture(t)
	storeVector(t, svc, "contacts", "c-1", axisVector(0), "Ada Lovelace")

	vectors.SetAvailable(false)

	// No query text means no fallback path.
	_, err := svc.Search(context.Background(), dto.SearchRequest{QueryVector: axisVector(0)})
	require.ErrorIs(t, err, domainerrors.ErrVectorBackendDown)
}

func TestSearchService_EmptyQueryRejected(t *testing.T) {
	svc, _ := newSearchFixture(t)

	_, err := svc.Search(context.Background(), dto.SearchRequest{})
	require.ErrorIs(t, err, domainerrors.ErrEmptyQuery)
}

func TestSearchService_QueryDimensionMismatch(t *testing.T) {
	svc, _ := newSearchFixture(t)

	_, err := svc.Search(context.Background(), dto.SearchRequest{QueryVector: []float64{1, 0}})
	require.ErrorIs(t, err, domainerrors.ErrDimensionMismatch)
}

func TestSearchService_GetAndDeleteVector(t *testing.T) {
	svc, _ := newSearchFixture(t)
	storeVector(t, svc, "contacts", "c-1", axisVector(0), "Ada Lovelace")

	record, err := svc.GetVector(context.Background(), "contacts", "c-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Ada Lovelace", record.SourceText)

	require.NoError(t, svc.DeleteVector(context.Background(), "contacts", "c-1"))

	record, err = svc.GetVector(context.Background(), "contacts", "c-1")
	require.NoError(t, err)
	assert.Nil(t, record)

	// Deleting again is a no-op.
	require.NoError(t, svc.DeleteVector(context.Background(), "contacts", "c-1"))
}
