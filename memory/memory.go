package memory

import (
	"context"

	"github.com/neurobloom/recall-go-sdk/core"
)

// ScoredIntervention is a query result: a stored intervention together with
// its cosine similarity to the query embedding.
type ScoredIntervention struct {
	core.Intervention

	// Similarity is in [-1, 1]; results are ordered by it descending.
	Similarity float64
}

// Store is the record storage backend. Implementations must be safe for
// concurrent use; writes are append-only per user and reads never mutate, so
// no locking is required above this interface.
//
// Every read path filters out records whose TTL has elapsed before they are
// considered, so logical expiry is observed exactly at the read boundary
// regardless of when Sweep last ran.
//
// Implementations: inmem.Store (local SDK, tests), redis.Store (production).
type Store interface {
	// Put validates and appends an intervention. The record's ID must be set
	// by the caller. Returns the ID on success, a *core.ValidationError on
	// malformed input, or ErrStoreUnavailable when the backend is unreachable.
	// Successful writes are immediately visible to subsequent reads from the
	// same caller.
	Put(ctx context.Context, iv *core.Intervention) (string, error)

	// Query computes exact cosine similarity between the query embedding and
	// every non-expired record for userID whose outcome is in filter (all
	// outcomes when filter is empty), returning the top k by similarity
	// descending. Equal-similarity ties resolve to the more recent record.
	Query(ctx context.Context, userID string, embedding []float32, k int, filter []core.Outcome) ([]ScoredIntervention, error)

	// Count returns the number of non-expired interventions for userID.
	Count(ctx context.Context, userID string) (int, error)

	// PutReflection validates and appends a reflection.
	PutReflection(ctx context.Context, r *core.Reflection) (string, error)

	// RecentReflections returns up to limit non-expired reflections for
	// userID, most recent first.
	RecentReflections(ctx context.Context, userID string, limit int) ([]core.Reflection, error)

	// ReflectionCount returns the number of non-expired reflections for
	// userID.
	ReflectionCount(ctx context.Context, userID string) (int, error)

	// Sweep physically removes expired records, returning how many were
	// dropped. It is purely a storage-reclamation pass and must never change
	// query results.
	Sweep(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}

// Embedder converts text to a fixed-dimension vector.
// Implementations: mock.Embedder (testing), onnx.Embedder (local SDK);
// wrap with retry.Embedder and cached.Embedder as needed.
type Embedder interface {
	// Embed converts a single text to an embedding vector. The returned
	// vector always has Dimensions() entries.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// TextGenerator produces the natural-language text of a reflection. The
// engine never generates text itself; this is an external capability.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
