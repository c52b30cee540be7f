package inbound

import (
	"context"

	"entitysync/internal/application/dto"
)

// SearchService is the vector surface exposed to protocol/tool layers.
type SearchService interface {
	// Search ranks stored vectors against the query text or vector. When
	// the vector backend is unavailable it degrades to case-insensitive
	// substring matching over source text.
	Search(ctx context.Context, request dto.SearchRequest) (*dto.SearchResponse, error)

	// UpsertVector stores a vector for the key, overwriting any existing
	// record. Non-zero vectors are normalized to unit magnitude.
	UpsertVector(ctx context.Context, record dto.VectorRecordDTO) error

	// GetVector returns the stored record, or nil when the key is unknown.
	GetVector(ctx context.Context, entityType, entityID string) (*dto.VectorRecordDTO, error)

	// DeleteVector removes the record for the key.
	DeleteVector(ctx context.Context, entityType, entityID string) error
}
