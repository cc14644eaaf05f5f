package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neurobloom/recall-go-sdk/core"
)

// Manager is the memory surface consumed by the session and tool-dispatch
// layers. It composes the store, embedder, and generator behind the
// degradation policy: reads fall back to empty history, writes are dropped
// with a logged warning, and no memory failure ever surfaces as fatal to the
// surrounding conversation.
type Manager struct {
	store       Store
	embedder    Embedder
	assembler   *Assembler
	synthesizer *Synthesizer
	sweeper     *Sweeper
	cfg         *Config

	// pending tracks detached intervention writes so CloseSession can wait
	// for them before synthesizing.
	pending sync.WaitGroup

	closeOnce sync.Once
}

// RecordRequest carries the inputs for recording one intervention.
type RecordRequest struct {
	UserID           string
	InterventionText string
	ContextText      string
	TaskLabel        string
	Outcome          core.Outcome

	// Embedding, when non-nil, skips the embedding call. The engine embeds
	// InterventionText plus ContextText otherwise.
	Embedding []float32
}

// Stats summarizes a user's stored history.
type Stats struct {
	InterventionCount int `json:"intervention_count"`
	ReflectionCount   int `json:"reflection_count"`
}

// NewManager wires a manager over the given backends and starts the retention
// sweeper. A nil generator disables reflection synthesis; a nil cfg uses
// defaults.
func NewManager(store Store, embedder Embedder, generator TextGenerator, cfg *Config) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("memory: store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if d := embedder.Dimensions(); d != cfg.Dimensions {
		return nil, fmt.Errorf("memory: embedder dimensions %d do not match configured %d", d, cfg.Dimensions)
	}

	m := &Manager{
		store:     store,
		embedder:  embedder,
		assembler: NewAssembler(store, embedder, cfg),
		cfg:       cfg,
	}
	if generator != nil {
		m.synthesizer = NewSynthesizer(store, generator, cfg)
	}
	m.sweeper = NewSweeper(store, cfg.SweepInterval)
	return m, nil
}

// RecordIntervention records an intervention without blocking the caller on
// the embedding call or the store round-trip. The record's ID is generated
// up front and returned immediately; the write itself runs detached and is
// dropped with a logged warning on failure.
//
// Cheap input validation still happens synchronously so callers hear about
// malformed requests rather than finding a warning in the logs.
func (m *Manager) RecordIntervention(req RecordRequest) (string, error) {
	if err := m.validateRequest(&req); err != nil {
		return "", err
	}

	id := uuid.NewString()
	createdAt := time.Now()

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RecordTimeout)
		defer cancel()

		if err := m.write(ctx, id, createdAt, req); err != nil {
			log.Printf("[MEMORY] dropped intervention %s for %s: %v", id, req.UserID, err)
		}
	}()
	return id, nil
}

// RecordInterventionSync records an intervention and waits for the write to
// complete. Used where the caller needs read-your-write visibility.
func (m *Manager) RecordInterventionSync(ctx context.Context, req RecordRequest) (string, error) {
	if err := m.validateRequest(&req); err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := m.write(ctx, id, time.Now(), req); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Manager) validateRequest(req *RecordRequest) error {
	if err := core.ValidateUserID(req.UserID); err != nil {
		return err
	}
	if strings.TrimSpace(req.InterventionText) == "" {
		return &core.ValidationError{Field: "intervention_text", Reason: "must not be empty"}
	}
	if req.Outcome == "" {
		req.Outcome = core.OutcomeUnknown
	}
	if err := req.Outcome.Validate(); err != nil {
		return &core.ValidationError{Field: "outcome", Reason: err.Error()}
	}
	if req.Embedding != nil {
		return core.ValidateEmbedding(req.Embedding, m.cfg.Dimensions)
	}
	return nil
}

func (m *Manager) write(ctx context.Context, id string, createdAt time.Time, req RecordRequest) error {
	embedding := req.Embedding
	if embedding == nil {
		var err error
		embedding, err = m.embedder.Embed(ctx, req.InterventionText+"\n"+req.ContextText)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
	}

	iv := &core.Intervention{
		ID:               id,
		UserID:           req.UserID,
		InterventionText: req.InterventionText,
		ContextText:      req.ContextText,
		TaskLabel:        req.TaskLabel,
		Outcome:          req.Outcome,
		Embedding:        embedding,
		CreatedAt:        createdAt,
		TTL:              m.cfg.InterventionTTL,
	}
	if _, err := m.store.Put(ctx, iv); err != nil {
		return err
	}
	log.Printf("[MEMORY] recorded intervention %s for %s (outcome=%s)", id, req.UserID, req.Outcome)
	return nil
}

// GetContext returns the session-start personalization bundle. It is bounded
// by the configured context timeout; on any failure or timeout it returns an
// empty bundle so the session proceeds as for a new user.
func (m *Manager) GetContext(ctx context.Context, userID string) *core.PersonalizationBundle {
	return m.getContext(ctx, userID, "")
}

// GetContextForMessage returns the personalization bundle assembled against a
// current message, adding similar past successes to the session-start pieces.
// Degrades to an empty bundle the same way GetContext does.
func (m *Manager) GetContextForMessage(ctx context.Context, userID, message string) *core.PersonalizationBundle {
	return m.getContext(ctx, userID, message)
}

func (m *Manager) getContext(ctx context.Context, userID, message string) *core.PersonalizationBundle {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ContextTimeout)
	defer cancel()

	var (
		bundle *core.PersonalizationBundle
		err    error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if message == "" {
			bundle, err = m.assembler.Assemble(ctx, userID)
		} else {
			bundle, err = m.assembler.AssembleForMessage(ctx, userID, message)
		}
	}()

	select {
	case <-done:
		if err != nil {
			log.Printf("[MEMORY] context unavailable for %s: %v", userID, err)
			return &core.PersonalizationBundle{}
		}
		return bundle
	case <-ctx.Done():
		log.Printf("[MEMORY] context timed out for %s: %v", userID, ctx.Err())
		return &core.PersonalizationBundle{}
	}
}

// FindSimilar returns the user's top k past interventions ranked by cosine
// similarity to the given embedding, optionally restricted to successful
// outcomes. Results carry their scores; callers apply their own threshold
// (GetContextForMessage applies the configured one).
func (m *Manager) FindSimilar(ctx context.Context, userID string, embedding []float32, k int, successfulOnly bool) ([]ScoredIntervention, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}
	var filter []core.Outcome
	if successfulOnly {
		filter = core.SuccessfulOutcomes()
	}
	return m.store.Query(ctx, userID, embedding, k, filter)
}

// CloseSession waits briefly for in-flight intervention writes, then
// synthesizes and stores one reflection for the session. Returns the stored
// reflection, or nil when synthesis was skipped (short session, no generator,
// or a degraded failure).
func (m *Manager) CloseSession(ctx context.Context, userID string, transcript core.Transcript) *core.Reflection {
	m.waitPending(m.cfg.RecordGrace)

	if m.synthesizer == nil {
		return nil
	}
	r, err := m.synthesizer.Synthesize(ctx, userID, transcript)
	if err != nil {
		log.Printf("[REFLECT] synthesis failed for %s: %v", userID, err)
		return nil
	}
	return r
}

// waitPending blocks until detached writes drain or the grace period lapses.
func (m *Manager) waitPending(grace time.Duration) {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		log.Printf("[MEMORY] close grace elapsed with writes still in flight")
	}
}

// Stats returns the user's current history counts.
func (m *Manager) Stats(ctx context.Context, userID string) (*Stats, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return nil, err
	}

	ivs, err := m.store.Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	rfs, err := m.store.ReflectionCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{InterventionCount: ivs, ReflectionCount: rfs}, nil
}

// Close stops the sweeper, drains detached writes, and closes the store.
// Safe to call more than once.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.sweeper.Stop()
		m.waitPending(m.cfg.RecordGrace)
		err = m.store.Close()
	})
	return err
}
