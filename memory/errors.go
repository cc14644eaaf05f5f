package memory

import "errors"

// Sentinel errors for external-capability and backend failures. Use
// errors.Is to classify; wrapped errors carry the underlying cause.
var (
	// ErrEmbedding indicates the embedding capability failed after retries.
	ErrEmbedding = errors.New("memory: embedding failed")

	// ErrGeneration indicates the text-generation capability failed. The
	// calling operation degrades (the reflection is skipped); it is never
	// retried indefinitely.
	ErrGeneration = errors.New("memory: generation failed")

	// ErrStoreUnavailable indicates the backing store is unreachable. The
	// manager then behaves as if the user has no history: reads return empty
	// bundles and writes are dropped with a logged warning.
	ErrStoreUnavailable = errors.New("memory: store unavailable")
)
