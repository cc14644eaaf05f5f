// Package retry wraps an embedder with bounded exponential backoff. Embedding
// backends are remote more often than not; transient failures should not turn
// into dropped records.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/neurobloom/recall-go-sdk/memory"
)

// Config controls the retry schedule.
type Config struct {
	// MaxAttempts is the total number of attempts including the first.
	// Default 3.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Doubles per
	// attempt. Default 100ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the per-attempt delay. Default 2s.
	MaxBackoff time.Duration
}

// Embedder retries the wrapped embedder's Embed calls.
type Embedder struct {
	inner memory.Embedder
	cfg   Config
}

var _ memory.Embedder = (*Embedder)(nil)

// Wrap returns a retrying embedder around inner.
func Wrap(inner memory.Embedder, cfg Config) *Embedder {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 2 * time.Second
	}
	return &Embedder{inner: inner, cfg: cfg}
}

// Embed calls the wrapped embedder, retrying with jittered exponential
// backoff. Context cancellation stops the schedule immediately.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	backoff := e.cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		vec, err := e.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if attempt == e.cfg.MaxAttempts {
			break
		}

		// Full jitter keeps concurrent retries from synchronizing.
		delay := time.Duration(rand.Int63n(int64(backoff) + 1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		backoff *= 2
		if backoff > e.cfg.MaxBackoff {
			backoff = e.cfg.MaxBackoff
		}
	}
	return nil, fmt.Errorf("embed failed after %d attempts: %w", e.cfg.MaxAttempts, lastErr)
}

// Dimensions returns the wrapped embedder's dimension.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}
