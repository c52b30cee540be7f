package entity

import (
	"math"
	"time"
)

// VectorRecord holds one stored embedding keyed by (entityType, entityID).
// Regenerating overwrites in place; last write wins, no versioning.
type VectorRecord struct {
	entityType string
	entityID   string
	vector     []float64
	sourceText string
	metadata   map[string]string
	createdAt  time.Time
}

// NewVectorRecord creates a vector record. The vector is stored as given;
// normalization is the search service's concern.
func NewVectorRecord(
	entityType, entityID string,
	vector []float64,
	sourceText string,
	metadata map[string]string,
) *VectorRecord {
	v := make([]float64, len(vector))
	copy(v, vector)
	return &VectorRecord{
		entityType: entityType,
		entityID:   entityID,
		vector:     v,
		sourceText: sourceText,
		metadata:   metadata,
		createdAt:  time.Now(),
	}
}

// RestoreVectorRecord creates a VectorRecord from stored data.
func RestoreVectorRecord(
	entityType, entityID string,
	vector []float64,
	sourceText string,
	metadata map[string]string,
	createdAt time.Time,
) *VectorRecord {
	return &VectorRecord{
		entityType: entityType,
		entityID:   entityID,
		vector:     vector,
		sourceText: sourceText,
		metadata:   metadata,
		createdAt:  createdAt,
	}
}

// EntityType returns the record's entity type.
func (r *VectorRecord) EntityType() string {
	return r.entityType
}

// EntityID returns the record's entity id.
func (r *VectorRecord) EntityID() string {
	return r.entityID
}

// Vector returns a copy of the stored vector.
func (r *VectorRecord) Vector() []float64 {
	v := make([]float64, len(r.vector))
	copy(v, r.vector)
	return v
}

// SourceText returns the text the vector was generated from.
func (r *VectorRecord) SourceText() string {
	return r.sourceText
}

// Metadata returns the optional metadata map.
func (r *VectorRecord) Metadata() map[string]string {
	return r.metadata
}

// CreatedAt returns the record timestamp.
func (r *VectorRecord) CreatedAt() time.Time {
	return r.createdAt
}

// Magnitude returns the L2 norm of the stored vector.
func (r *VectorRecord) Magnitude() float64 {
	var sum float64
	for _, v := range r.vector {
		sum += v * v
	}
	return math.Sqrt(sum)
}
