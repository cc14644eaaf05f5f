// Package mock provides a deterministic embedder for tests and local
// development. Identical texts always embed to identical unit vectors, so
// record-then-retrieve round trips score a cosine similarity of 1.0, while
// unrelated texts land near-orthogonal.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder is a hash-seeded deterministic embedder.
type Embedder struct {
	dimensions int

	// Err, when set, is returned from every Embed call. Used to exercise
	// degradation paths in tests.
	Err error
}

// New creates a mock embedder producing vectors of the given dimension.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Embedder{dimensions: dimensions}
}

// Embed derives a unit vector from the text's FNV hash. The same text always
// produces the same vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, e.dimensions)
	for i := range embedding {
		// LCG stream seeded by the hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
