package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurobloom/recall-go-sdk/memory/embedder/retry"
)

// flakyEmbedder fails the first failures calls, then succeeds.
type flakyEmbedder struct {
	failures int
	calls    int
}

func (e *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.calls <= e.failures {
		return nil, errors.New("transient failure")
	}
	return []float32{1, 0, 0}, nil
}

func (e *flakyEmbedder) Dimensions() int { return 3 }

func TestRetriesTransientFailures(t *testing.T) {
	inner := &flakyEmbedder{failures: 2}
	e := retry.Wrap(inner, retry.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	vec, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, 3, inner.calls)
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyEmbedder{failures: 10}
	e := retry.Wrap(inner, retry.Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestNoRetryOnFirstSuccess(t *testing.T) {
	inner := &flakyEmbedder{}
	e := retry.Wrap(inner, retry.Config{MaxAttempts: 3})

	_, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	inner := &flakyEmbedder{failures: 10}
	e := retry.Wrap(inner, retry.Config{
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.Embed(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestDimensionsPassThrough(t *testing.T) {
	e := retry.Wrap(&flakyEmbedder{}, retry.Config{})
	assert.Equal(t, 3, e.Dimensions())
}
