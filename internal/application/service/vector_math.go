package service

import (
	"fmt"
	"math"

	domainerrors "entitysync/internal/domain/errors/domain"
)

// normalizeVector scales the vector to unit magnitude. Zero and near-zero
// vectors cannot be normalized and are rejected.
func normalizeVector(vector []float64) ([]float64, error) {
	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	magnitude := math.Sqrt(sum)
	if magnitude < 1e-12 {
		return nil, domainerrors.ErrZeroVector
	}

	normalized := make([]float64, len(vector))
	for i, v := range vector {
		normalized[i] = v / magnitude
	}
	return normalized, nil
}

// dotProduct computes the inner product of two equal-length vectors. Over
// unit-normalized vectors this is the cosine similarity.
func dotProduct(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domainerrors.ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}
