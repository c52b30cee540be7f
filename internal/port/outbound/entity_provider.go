package outbound

import (
	"context"
	"time"

	"entitysync/internal/domain/entity"
)

// FetchFilter narrows the records an entity provider returns.
type FetchFilter struct {
	// UpdatedSince, when set, restricts results to records updated at or
	// after this instant.
	UpdatedSince *time.Time
}

// EntityProvider fetches entity records from the external system.
// Pagination is the provider's concern; the core only needs the full
// ordered sequence it can chunk. Item order here fixes processing order.
type EntityProvider interface {
	// FetchPage returns all records of the entity type matching the
	// filter, in the provider's order.
	FetchPage(ctx context.Context, entityType string, filter FetchFilter) ([]entity.EntityRecord, error)

	// Supports reports whether the provider can serve the entity type.
	Supports(entityType string) bool
}

// Upserter performs field-level upserts of entity records against the
// external system. Used as the per-item operation for sync jobs.
type Upserter interface {
	Apply(ctx context.Context, entityType string, record entity.EntityRecord) error
}
