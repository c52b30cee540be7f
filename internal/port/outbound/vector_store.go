package outbound

import (
	"context"

	"entitysync/internal/domain/entity"
)

// SimilarityMatch is one ranked search result.
type SimilarityMatch struct {
	Record     *entity.VectorRecord
	Similarity float64
}

// SearchOptions bounds a similarity or text search.
type SearchOptions struct {
	// TypeFilter restricts results to these entity types; empty means all.
	TypeFilter []string
	// Limit caps the number of results returned.
	Limit int
	// Threshold drops results with similarity below this value.
	Threshold float64
}

// VectorStore owns vector records keyed by (entityType, entityID).
type VectorStore interface {
	// Upsert overwrites any existing record for the key (last write wins).
	Upsert(ctx context.Context, record *entity.VectorRecord) error

	// Find returns the record for the key, or ErrVectorNotFound.
	Find(ctx context.Context, entityType, entityID string) (*entity.VectorRecord, error)

	// Delete removes the record for the key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, entityType, entityID string) error

	// SimilaritySearch ranks stored records by cosine similarity against
	// the unit-normalized query vector, descending, ties broken by storage
	// order. Returns ErrVectorBackendDown when the backend cannot serve
	// vector queries.
	SimilaritySearch(ctx context.Context, queryVector []float64, options SearchOptions) ([]SimilarityMatch, error)

	// TextSearch is the degraded path: case-insensitive substring
	// containment against sourceText, every match assigned the given fixed
	// score, same type filter and limit semantics.
	TextSearch(ctx context.Context, query string, fixedScore float64, options SearchOptions) ([]SimilarityMatch, error)
}
