// Package simple provides a deterministic, dependency-free vectorizer.
// Embeddings are derived from a SHA-256 digest of the input text, so the
// same text always maps to the same unit vector. It stands in wherever a
// real embedding model is not configured.
package simple

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"

	domainerrors "entitysync/internal/domain/errors/domain"
)

// DefaultDimensions matches common sentence-embedding model output sizes.
const DefaultDimensions = 768

// Vectorizer produces deterministic pseudo-embeddings.
type Vectorizer struct {
	dimensions int
}

// NewVectorizer creates a vectorizer with the given output size; values
// below one fall back to DefaultDimensions.
func NewVectorizer(dimensions int) *Vectorizer {
	if dimensions < 1 {
		dimensions = DefaultDimensions
	}
	return &Vectorizer{dimensions: dimensions}
}

// Dimensions returns the embedding size.
func (v *Vectorizer) Dimensions() int {
	return v.dimensions
}

// Embed maps text to a unit-magnitude vector. The SHA-256 digest of the
// text seeds an xorshift64* stream whose outputs fill the components, so
// distinct texts land in effectively random directions while equal texts
// coincide exactly.
func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, domainerrors.ErrEmptyQuery
	}

	digest := sha256.Sum256([]byte(text))
	state := binary.BigEndian.Uint64(digest[:8])
	if state == 0 {
		state = binary.BigEndian.Uint64(digest[8:16]) | 1
	}

	vector := make([]float64, v.dimensions)
	var sum float64
	for i := range vector {
		state ^= state >> 12
		state ^= state << 25
		state ^= state >> 27
		// Map to (-1, 1), centered on zero.
		component := float64(int64(state*0x2545F4914F6CDD1D)) / float64(math.MaxInt64)
		vector[i] = component
		sum += component * component
	}

	magnitude := math.Sqrt(sum)
	if magnitude < 1e-12 {
		return nil, domainerrors.ErrZeroVector
	}
	for i := range vector {
		vector[i] /= magnitude
	}
	return vector, nil
}
