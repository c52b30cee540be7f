package dto

import "time"

// SearchRequest carries a semantic search. Exactly one of QueryText or
// QueryVector should be set; when both are present the vector wins.
type SearchRequest struct {
	QueryText   string    `json:"query_text,omitempty"`
	QueryVector []float64 `json:"query_vector,omitempty"`
	TypeFilter  []string  `json:"type_filter,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Threshold   float64   `json:"threshold,omitempty"`
}

// DefaultSearchLimit bounds result sets when the caller gives no limit.
const DefaultSearchLimit = 10

// ApplyDefaults fills the default limit.
func (r *SearchRequest) ApplyDefaults() {
	if r.Limit <= 0 {
		r.Limit = DefaultSearchLimit
	}
}

// SearchResult is one ranked match.
type SearchResult struct {
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	SourceText string            `json:"source_text"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SearchResponse is the ranked result list plus fallback signaling.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	// Degraded is true when the vector backend was unavailable and results
	// come from the substring fallback.
	Degraded bool `json:"degraded,omitempty"`
}

// VectorRecordDTO is the externally visible view of a stored vector.
type VectorRecordDTO struct {
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Vector     []float64         `json:"vector"`
	SourceText string            `json:"source_text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
