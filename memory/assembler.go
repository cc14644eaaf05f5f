package memory

import (
	"context"
	"log"

	"github.com/neurobloom/recall-go-sdk/core"
)

// Assembler builds personalization bundles from stored history. Each piece of
// a bundle is fetched independently and a failed piece degrades to its zero
// value, so a partially reachable store still yields a useful bundle.
type Assembler struct {
	store    Store
	embedder Embedder
	cfg      *Config
}

// NewAssembler creates an assembler over the given store and embedder.
func NewAssembler(store Store, embedder Embedder, cfg *Config) *Assembler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Assembler{store: store, embedder: embedder, cfg: cfg}
}

// Assemble builds the session-start bundle: recent reflections plus the
// intervention count. No similarity search is involved.
func (a *Assembler) Assemble(ctx context.Context, userID string) (*core.PersonalizationBundle, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}

	bundle := &core.PersonalizationBundle{}

	reflections, err := a.store.RecentReflections(ctx, userID, a.cfg.MaxReflections)
	if err != nil {
		log.Printf("[MEMORY] reflections unavailable for %s: %v", userID, err)
	} else {
		for _, r := range reflections {
			bundle.RecentReflections = append(bundle.RecentReflections, r.InsightText)
		}
	}

	count, err := a.store.Count(ctx, userID)
	if err != nil {
		log.Printf("[MEMORY] intervention count unavailable for %s: %v", userID, err)
	} else {
		bundle.InterventionCount = count
	}

	return bundle, nil
}

// AssembleForMessage builds the full bundle against a current message: the
// session-start pieces plus similar past successes. An embedding failure
// drops only the similarity section.
func (a *Assembler) AssembleForMessage(ctx context.Context, userID, message string) (*core.PersonalizationBundle, error) {
	bundle, err := a.Assemble(ctx, userID)
	if err != nil {
		return nil, err
	}
	if message == "" {
		return bundle, nil
	}

	similar, err := a.SimilarSuccesses(ctx, userID, message)
	if err != nil {
		log.Printf("[MEMORY] similarity search skipped for %s: %v", userID, err)
		return bundle, nil
	}
	bundle.SimilarSuccesses = similar
	return bundle, nil
}

// SimilarSuccesses embeds the message and returns past successful
// interventions above the similarity threshold, best first.
func (a *Assembler) SimilarSuccesses(ctx context.Context, userID, message string) ([]core.SimilarSuccess, error) {
	embedding, err := a.embedder.Embed(ctx, message)
	if err != nil {
		return nil, err
	}

	scored, err := a.store.Query(ctx, userID, embedding, a.cfg.MaxSimilar, core.SuccessfulOutcomes())
	if err != nil {
		return nil, err
	}

	out := make([]core.SimilarSuccess, 0, len(scored))
	for _, s := range scored {
		if s.Similarity < a.cfg.SimilarityThreshold {
			continue
		}
		out = append(out, core.SimilarSuccess{
			InterventionText: s.InterventionText,
			ContextText:      s.ContextText,
			Similarity:       s.Similarity,
		})
	}
	return out, nil
}
