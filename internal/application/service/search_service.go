package service

import (
	"context"
	"errors"
	"fmt"

	"entitysync/internal/application/common/slogger"
	"entitysync/internal/application/dto"
	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/port/outbound"
)

// TextFallbackScore is assigned to every substring match on the degraded
// search path, where no real similarity can be computed.
const TextFallbackScore = 0.5

// VectorSearchService implements semantic search over stored vectors with
// graceful degradation to substring matching.
type VectorSearchService struct {
	vectors    outbound.VectorStore
	vectorizer outbound.Vectorizer
}

// NewVectorSearchService creates a search service. Both deps must be non-nil.
func NewVectorSearchService(vectors outbound.VectorStore, vectorizer outbound.Vectorizer) *VectorSearchService {
	if vectors == nil {
		panic("vectors cannot be nil")
	}
	if vectorizer == nil {
		panic("vectorizer cannot be nil")
	}
	return &VectorSearchService{vectors: vectors, vectorizer: vectorizer}
}

// Search ranks stored vectors by cosine similarity against the query. The
// query vector is normalized before matching, so stored unit vectors score
// in [-1, 1]. When the vector backend reports itself unavailable and the
// caller supplied query text, the result degrades to case-insensitive
// substring containment with a fixed score.
func (s *VectorSearchService) Search(ctx context.Context, request dto.SearchRequest) (*dto.SearchResponse, error) {
	request.ApplyDefaults()
	if len(request.QueryVector) == 0 && request.QueryText == "" {
		return nil, domainerrors.ErrEmptyQuery
	}

	options := outbound.SearchOptions{
		TypeFilter: request.TypeFilter,
		Limit:      request.Limit,
		Threshold:  request.Threshold,
	}

	queryVector, err := s.resolveQueryVector(ctx, request)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVectorBackendDown) && request.QueryText != "" {
			return s.textFallback(ctx, request.QueryText, options)
		}
		return nil, err
	}

	matches, err := s.vectors.SimilaritySearch(ctx, queryVector, options)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVectorBackendDown) && request.QueryText != "" {
			return s.textFallback(ctx, request.QueryText, options)
		}
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return &dto.SearchResponse{Results: matchesToResults(matches)}, nil
}

// resolveQueryVector normalizes an explicit query vector or embeds the
// query text. An explicit vector wins when both are present.
func (s *VectorSearchService) resolveQueryVector(ctx context.Context, request dto.SearchRequest) ([]float64, error) {
	if len(request.QueryVector) > 0 {
		if len(request.QueryVector) != s.vectorizer.Dimensions() {
			return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
				domainerrors.ErrDimensionMismatch, len(request.QueryVector), s.vectorizer.Dimensions())
		}
		return normalizeVector(request.QueryVector)
	}

	embedded, err := s.vectorizer.Embed(ctx, request.QueryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return normalizeVector(embedded)
}

func (s *VectorSearchService) textFallback(ctx context.Context, query string, options outbound.SearchOptions) (*dto.SearchResponse, error) {
	slogger.Warn(ctx, "vector backend unavailable, degrading to substring search", slogger.Field("query", query))

	matches, err := s.vectors.TextSearch(ctx, query, TextFallbackScore, options)
	if err != nil {
		return nil, fmt.Errorf("text fallback search: %w", err)
	}
	return &dto.SearchResponse{Results: matchesToResults(matches), Degraded: true}, nil
}

// UpsertVector normalizes and stores a vector. Dimension and zero-vector
// violations are rejected before anything is written.
func (s *VectorSearchService) UpsertVector(ctx context.Context, record dto.VectorRecordDTO) error {
	if record.EntityType == "" || record.EntityID == "" {
		return fmt.Errorf("%w: entity type and id are required", domainerrors.ErrInvalidInput)
	}
	if len(record.Vector) != s.vectorizer.Dimensions() {
		return fmt.Errorf("%w: vector has %d dimensions, expected %d",
			domainerrors.ErrDimensionMismatch, len(record.Vector), s.vectorizer.Dimensions())
	}

	normalized, err := normalizeVector(record.Vector)
	if err != nil {
		return err
	}

	return s.vectors.Upsert(ctx, entity.NewVectorRecord(
		record.EntityType,
		record.EntityID,
		normalized,
		record.SourceText,
		record.Metadata,
	))
}

// GetVector returns the stored record, or nil when the key is unknown.
func (s *VectorSearchService) GetVector(ctx context.Context, entityType, entityID string) (*dto.VectorRecordDTO, error) {
	record, err := s.vectors.Find(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVectorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find vector: %w", err)
	}
	result := recordToDTO(record)
	return &result, nil
}

// DeleteVector removes the record for the key. Unknown keys are a no-op.
func (s *VectorSearchService) DeleteVector(ctx context.Context, entityType, entityID string) error {
	return s.vectors.Delete(ctx, entityType, entityID)
}

func matchesToResults(matches []outbound.SimilarityMatch) []dto.SearchResult {
	results := make([]dto.SearchResult, len(matches))
	for i, match := range matches {
		results[i] = dto.SearchResult{
			EntityType: match.Record.EntityType(),
			EntityID:   match.Record.EntityID(),
			SourceText: match.Record.SourceText(),
			Similarity: match.Similarity,
			Metadata:   match.Record.Metadata(),
		}
	}
	return results
}

func recordToDTO(record *entity.VectorRecord) dto.VectorRecordDTO {
	return dto.VectorRecordDTO{
		EntityType: record.EntityType(),
		EntityID:   record.EntityID(),
		Vector:     record.Vector(),
		SourceText: record.SourceText(),
		Metadata:   record.Metadata(),
		CreatedAt:  record.CreatedAt(),
	}
}
