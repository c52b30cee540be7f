package valueobject

import "fmt"

// JobKind distinguishes the two classes of background work the engine runs.
type JobKind string

const (
	// JobKindSync bulk-synchronizes entity records from the external system.
	JobKindSync JobKind = "sync"
	// JobKindEmbedding generates vector embeddings for stored entity records.
	JobKindEmbedding JobKind = "embedding"
)

// NewJobKind creates a JobKind with validation.
func NewJobKind(kind string) (JobKind, error) {
	k := JobKind(kind)
	if k != JobKindSync && k != JobKindEmbedding {
		return "", fmt.Errorf("invalid job kind: %s", kind)
	}
	return k, nil
}

// String returns the string representation of the kind.
func (k JobKind) String() string {
	return string(k)
}

// DefaultBatchSize returns the batch size used when the caller does not
// supply one. Embedding batches are smaller because each item performs a
// vector store write on top of the embed call.
func (k JobKind) DefaultBatchSize() int {
	if k == JobKindEmbedding {
		return 10
	}
	return 50
}
