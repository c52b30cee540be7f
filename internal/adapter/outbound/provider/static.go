// Package provider contains entity-provider adapters: sources jobs pull
// candidate records from, and sinks sync jobs apply them to.
package provider

import (
	"context"
	"fmt"
	"sync"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/port/outbound"
)

// StaticProvider serves records loaded up front and collects applied
// upserts. It backs standalone mode and local experimentation, where no
// external system is configured.
type StaticProvider struct {
	mu      sync.RWMutex
	pages   map[string][]entity.EntityRecord
	applied map[string]map[string]entity.EntityRecord
}

// NewStaticProvider creates an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		pages:   make(map[string][]entity.EntityRecord),
		applied: make(map[string]map[string]entity.EntityRecord),
	}
}

// Load replaces the record set served for the entity type.
func (p *StaticProvider) Load(entityType string, records []entity.EntityRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	page := make([]entity.EntityRecord, len(records))
	copy(page, records)
	p.pages[entityType] = page
}

// Supports reports whether records were loaded for the entity type.
func (p *StaticProvider) Supports(entityType string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.pages[entityType]
	return ok
}

// FetchPage returns the loaded records. Static data carries no update
// timestamps, so the filter is ignored.
func (p *StaticProvider) FetchPage(_ context.Context, entityType string, _ outbound.FetchFilter) ([]entity.EntityRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	page, ok := p.pages[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedEntityType, entityType)
	}
	result := make([]entity.EntityRecord, len(page))
	copy(result, page)
	return result, nil
}

// Apply records the upsert, overwriting any earlier record with the same id.
func (p *StaticProvider) Apply(_ context.Context, entityType string, record entity.EntityRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pages[entityType]; !ok {
		return fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedEntityType, entityType)
	}
	if p.applied[entityType] == nil {
		p.applied[entityType] = make(map[string]entity.EntityRecord)
	}
	p.applied[entityType][record.ID] = record
	return nil
}

// Applied returns the records upserted for the entity type, keyed by id.
func (p *StaticProvider) Applied(entityType string) map[string]entity.EntityRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]entity.EntityRecord, len(p.applied[entityType]))
	for id, record := range p.applied[entityType] {
		result[id] = record
	}
	return result
}
