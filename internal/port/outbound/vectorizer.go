package outbound

import "context"

// Vectorizer maps text to a fixed-length float vector. Output must be
// deterministic for identical input and normalizable to unit magnitude when
// non-zero, so a production embedding source can be substituted without
// touching orchestration or search logic.
type Vectorizer interface {
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the fixed output vector length.
	Dimensions() int
}
