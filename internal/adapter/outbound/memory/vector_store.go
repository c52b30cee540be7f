package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"entitysync/internal/domain/entity"
	domainerrors "entitysync/internal/domain/errors/domain"
	"entitysync/internal/port/outbound"
)

type vectorKey struct {
	entityType string
	entityID   string
}

// VectorStore is an in-memory vector store with brute-force cosine scans.
// Insertion order is tracked so equal similarities rank oldest first.
type VectorStore struct {
	mu        sync.RWMutex
	records   map[vectorKey]*entity.VectorRecord
	order     []vectorKey
	available bool
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records:   make(map[vectorKey]*entity.VectorRecord),
		available: true,
	}
}

// SetAvailable toggles the simulated vector backend. When false,
// SimilaritySearch returns ErrVectorBackendDown while TextSearch keeps
// working, which exercises the degraded search path.
func (s *VectorStore) SetAvailable(available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = available
}

// Upsert stores the record, overwriting any existing one for its key.
func (s *VectorStore) Upsert(_ context.Context, record *entity.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vectorKey{entityType: record.EntityType(), entityID: record.EntityID()}
	if _, exists := s.records[key]; !exists {
		s.order = append(s.order, key)
	}
	s.records[key] = record
	return nil
}

// Find returns the record for the key, or ErrVectorNotFound.
func (s *VectorStore) Find(_ context.Context, entityType, entityID string) (*entity.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[vectorKey{entityType: entityType, entityID: entityID}]
	if !ok {
		return nil, domainerrors.ErrVectorNotFound
	}
	return record, nil
}

// Delete removes the record for the key. Missing keys are a no-op.
func (s *VectorStore) Delete(_ context.Context, entityType, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := vectorKey{entityType: entityType, entityID: entityID}
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SimilaritySearch scans all stored vectors and ranks them by dot product
// against the query, descending. Stored vectors are unit-normalized on
// write, so the dot product is the cosine similarity. Records whose
// dimensions differ from the query are skipped.
func (s *VectorStore) SimilaritySearch(_ context.Context, queryVector []float64, options outbound.SearchOptions) ([]outbound.SimilarityMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.available {
		return nil, domainerrors.ErrVectorBackendDown
	}

	var matches []outbound.SimilarityMatch
	for _, key := range s.order {
		record := s.records[key]
		if !typeAllowed(record.EntityType(), options.TypeFilter) {
			continue
		}
		vector := record.Vector()
		if len(vector) != len(queryVector) {
			continue
		}

		var similarity float64
		for i := range vector {
			similarity += vector[i] * queryVector[i]
		}
		if similarity < options.Threshold {
			continue
		}
		matches = append(matches, outbound.SimilarityMatch{Record: record, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if options.Limit > 0 && len(matches) > options.Limit {
		matches = matches[:options.Limit]
	}
	return matches, nil
}

// TextSearch matches case-insensitive substrings of sourceText, each match
// carrying the caller's fixed score. Works even when the vector backend is
// marked unavailable.
func (s *VectorStore) TextSearch(_ context.Context, query string, fixedScore float64, options outbound.SearchOptions) ([]outbound.SimilarityMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var matches []outbound.SimilarityMatch
	for _, key := range s.order {
		record := s.records[key]
		if !typeAllowed(record.EntityType(), options.TypeFilter) {
			continue
		}
		if !strings.Contains(strings.ToLower(record.SourceText()), needle) {
			continue
		}
		matches = append(matches, outbound.SimilarityMatch{Record: record, Similarity: fixedScore})
		if options.Limit > 0 && len(matches) == options.Limit {
			break
		}
	}
	return matches, nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func typeAllowed(entityType string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, t := range filter {
		if t == entityType {
			return true
		}
	}
	return false
}
