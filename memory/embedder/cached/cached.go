// Package cached wraps an embedder with an in-process ristretto cache.
// Embeddings are deterministic per text, so a session that records the same
// intervention phrasing repeatedly pays for one backend call.
package cached

import (
	"context"

	"github.com/dgraph-io/ristretto"

	"github.com/neurobloom/recall-go-sdk/memory"
)

// Embedder caches Embed results keyed by the input text.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

var _ memory.Embedder = (*Embedder)(nil)

// Wrap returns a caching embedder holding up to maxEntries vectors.
func Wrap(inner memory.Embedder, maxEntries int64) (*Embedder, error) {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, calling through on a miss.
// Callers must not mutate the returned slice.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, 1)
	return vec, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Close releases the cache.
func (e *Embedder) Close() {
	e.cache.Close()
}
