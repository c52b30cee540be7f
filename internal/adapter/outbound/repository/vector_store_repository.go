package repository

import (
	"context"
	"fmt"
	"time"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/port/outbound"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLVectorStore implements the VectorStore interface on Postgres
// with the pgvector extension. Similarity queries use the cosine distance
// operator; a connection-level failure surfaces as ErrVectorBackendDown so
// the search service can degrade to substring matching.
type PostgreSQLVectorStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLVectorStore creates a new PostgreSQL vector store.
func NewPostgreSQLVectorStore(pool *pgxpool.Pool) *PostgreSQLVectorStore {
	return &PostgreSQLVectorStore{pool: pool}
}

// Upsert stores the record, overwriting any existing one for its key.
func (r *PostgreSQLVectorStore) Upsert(ctx context.Context, record *entity.VectorRecord) error {
	if record == nil {
		return ErrInvalidArgument
	}

	query := `
		INSERT INTO entitysync.entity_vectors (entity_type, entity_id, embedding, source_text, metadata, created_at)
		VALUES ($1, $2, $3::vector, $4, $5, $6)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			source_text = EXCLUDED.source_text,
			metadata = EXCLUDED.metadata,
			created_at = EXCLUDED.created_at`

	qi := GetQueryInterface(ctx, r.pool)
	_, err := qi.Exec(ctx, query,
		record.EntityType(),
		record.EntityID(),
		VectorToString(record.Vector()),
		record.SourceText(),
		record.Metadata(),
		record.CreatedAt(),
	)
	if err != nil {
		return WrapError(err, "upsert entity vector")
	}
	return nil
}

// Find returns the record for the key, or ErrVectorNotFound.
func (r *PostgreSQLVectorStore) Find(ctx context.Context, entityType, entityID string) (*entity.VectorRecord, error) {
	query := `
		SELECT entity_type, entity_id, embedding::text, source_text, metadata, created_at
		FROM entitysync.entity_vectors
		WHERE entity_type = $1 AND entity_id = $2`

	qi := GetQueryInterface(ctx, r.pool)
	record, err := scanVectorRecord(qi.QueryRow(ctx, query, entityType, entityID))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, domainerrors.ErrVectorNotFound
		}
		return nil, WrapError(err, "find entity vector")
	}
	return record, nil
}

// Delete removes the record for the key. Missing keys are a no-op.
func (r *PostgreSQLVectorStore) Delete(ctx context.Context, entityType, entityID string) error {
	query := `DELETE FROM entitysync.entity_vectors WHERE entity_type = $1 AND entity_id = $2`

	qi := GetQueryInterface(ctx, r.pool)
	if _, err := qi.Exec(ctx, query, entityType, entityID); err != nil {
		return WrapError(err, "delete entity vector")
	}
	return nil
}

// SimilaritySearch ranks stored vectors by cosine similarity against the
// query vector, descending, ties broken by insertion order.
func (r *PostgreSQLVectorStore) SimilaritySearch(ctx context.Context, queryVector []float64, options outbound.SearchOptions) ([]outbound.SimilarityMatch, error) {
	query := `
		SELECT entity_type, entity_id, embedding::text, source_text, metadata, created_at,
			   1 - (embedding <=> $1::vector) AS similarity
		FROM entitysync.entity_vectors
		WHERE ($2::text[] IS NULL OR entity_type = ANY($2))
		  AND 1 - (embedding <=> $1::vector) >= $3
		ORDER BY similarity DESC, created_at ASC
		LIMIT $4`

	var typeFilter []string
	if len(options.TypeFilter) > 0 {
		typeFilter = options.TypeFilter
	}

	qi := GetQueryInterface(ctx, r.pool)
	rows, err := qi.Query(ctx, query, VectorToString(queryVector), typeFilter, options.Threshold, options.Limit)
	if err != nil {
		if IsConnectionError(err) {
			return nil, fmt.Errorf("%w: %w", domainerrors.ErrVectorBackendDown, err)
		}
		return nil, WrapError(err, "similarity search")
	}
	defer rows.Close()

	return scanMatches(rows, true)
}

// TextSearch matches case-insensitive substrings of source text, each
// match carrying the caller's fixed score.
func (r *PostgreSQLVectorStore) TextSearch(ctx context.Context, query string, fixedScore float64, options outbound.SearchOptions) ([]outbound.SimilarityMatch, error) {
	sqlQuery := `
		SELECT entity_type, entity_id, embedding::text, source_text, metadata, created_at
		FROM entitysync.entity_vectors
		WHERE ($2::text[] IS NULL OR entity_type = ANY($2))
		  AND source_text ILIKE '%' || $1 || '%'
		ORDER BY created_at ASC
		LIMIT $3`

	var typeFilter []string
	if len(options.TypeFilter) > 0 {
		typeFilter = options.TypeFilter
	}

	qi := GetQueryInterface(ctx, r.pool)
	rows, err := qi.Query(ctx, sqlQuery, query, typeFilter, options.Limit)
	if err != nil {
		return nil, WrapError(err, "text search")
	}
	defer rows.Close()

	matches, err := scanMatches(rows, false)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Similarity = fixedScore
	}
	return matches, nil
}

func scanMatches(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}, withSimilarity bool,
) ([]outbound.SimilarityMatch, error) {
	var matches []outbound.SimilarityMatch
	for rows.Next() {
		var (
			entityType, entityID  string
			vectorStr, sourceText string
			metadata              map[string]string
			createdAt             time.Time
			similarity            float64
		)

		dest := []any{&entityType, &entityID, &vectorStr, &sourceText, &metadata, &createdAt}
		if withSimilarity {
			dest = append(dest, &similarity)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, WrapError(err, "scan search match")
		}

		vector, err := StringToVector(vectorStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored vector for %s/%s: %w", entityType, entityID, err)
		}

		matches = append(matches, outbound.SimilarityMatch{
			Record:     entity.RestoreVectorRecord(entityType, entityID, vector, sourceText, metadata, createdAt),
			Similarity: similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(err, "iterate search matches")
	}
	return matches, nil
}

func scanVectorRecord(row rowScanner) (*entity.VectorRecord, error) {
	var (
		entityType, entityID  string
		vectorStr, sourceText string
		metadata              map[string]string
		createdAt             time.Time
	)
	if err := row.Scan(&entityType, &entityID, &vectorStr, &sourceText, &metadata, &createdAt); err != nil {
		return nil, err
	}

	vector, err := StringToVector(vectorStr)
	if err != nil {
		return nil, fmt.Errorf("parse stored vector for %s/%s: %w", entityType, entityID, err)
	}
	return entity.RestoreVectorRecord(entityType, entityID, vector, sourceText, metadata, createdAt), nil
}
