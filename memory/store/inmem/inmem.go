// Package inmem provides an in-process Store for the local SDK and tests.
// Records live in per-user slices guarded by a single RWMutex; similarity
// search is an exact scan, which is the right trade for per-user corpora
// that stay in the hundreds.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/neurobloom/recall-go-sdk/core"
	"github.com/neurobloom/recall-go-sdk/memory"
)

// Store is an in-memory memory.Store implementation. Safe for concurrent use.
type Store struct {
	dimensions int

	mu          sync.RWMutex
	records     map[string][]*core.Intervention
	reflections map[string][]*core.Reflection

	// now is swappable so expiry tests don't have to sleep.
	now func() time.Time
}

var _ memory.Store = (*Store)(nil)

// New creates an empty store enforcing the given embedding dimension.
func New(dimensions int) *Store {
	return &Store{
		dimensions:  dimensions,
		records:     make(map[string][]*core.Intervention),
		reflections: make(map[string][]*core.Reflection),
		now:         time.Now,
	}
}

// SetClock replaces the store's time source. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Put validates and appends an intervention.
func (s *Store) Put(ctx context.Context, iv *core.Intervention) (string, error) {
	if err := core.ValidateIntervention(iv, s.dimensions); err != nil {
		return "", err
	}

	cp := *iv
	cp.Embedding = append([]float32(nil), iv.Embedding...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cp.UserID] = append(s.records[cp.UserID], &cp)
	return cp.ID, nil
}

// Query scans the user's non-expired records and returns the top k by cosine
// similarity descending. Ties on similarity resolve to the more recent record.
func (s *Store) Query(ctx context.Context, userID string, embedding []float32, k int, filter []core.Outcome) ([]memory.ScoredIntervention, error) {
	if err := core.ValidateEmbedding(embedding, s.dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	allowed := outcomeSet(filter)

	s.mu.RLock()
	now := s.now()
	scored := make([]memory.ScoredIntervention, 0, len(s.records[userID]))
	for _, iv := range s.records[userID] {
		if iv.Expired(now) {
			continue
		}
		if allowed != nil && !allowed[iv.Outcome] {
			continue
		}
		scored = append(scored, memory.ScoredIntervention{
			Intervention: *iv,
			Similarity:   memory.CosineSimilarity(embedding, iv.Embedding),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of non-expired interventions for userID.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, iv := range s.records[userID] {
		if !iv.Expired(now) {
			n++
		}
	}
	return n, nil
}

// PutReflection validates and appends a reflection.
func (s *Store) PutReflection(ctx context.Context, r *core.Reflection) (string, error) {
	if err := core.ValidateReflection(r); err != nil {
		return "", err
	}

	cp := *r

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reflections[cp.UserID] = append(s.reflections[cp.UserID], &cp)
	return cp.ID, nil
}

// RecentReflections returns up to limit non-expired reflections, most recent
// first.
func (s *Store) RecentReflections(ctx context.Context, userID string, limit int) ([]core.Reflection, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	now := s.now()
	live := make([]core.Reflection, 0, len(s.reflections[userID]))
	for _, r := range s.reflections[userID] {
		if !r.Expired(now) {
			live = append(live, *r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(live, func(i, j int) bool {
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})
	if len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

// ReflectionCount returns the number of non-expired reflections for userID.
func (s *Store) ReflectionCount(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, r := range s.reflections[userID] {
		if !r.Expired(now) {
			n++
		}
	}
	return n, nil
}

// Sweep drops expired records and returns how many were removed. Query
// results are unaffected because every read already filters on expiry.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0

	for userID, ivs := range s.records {
		kept := ivs[:0]
		for _, iv := range ivs {
			if iv.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, iv)
		}
		if len(kept) == 0 {
			delete(s.records, userID)
		} else {
			s.records[userID] = kept
		}
	}

	for userID, rs := range s.reflections {
		kept := rs[:0]
		for _, r := range rs {
			if r.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.reflections, userID)
		} else {
			s.reflections[userID] = kept
		}
	}

	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func outcomeSet(filter []core.Outcome) map[core.Outcome]bool {
	if len(filter) == 0 {
		return nil
	}
	set := make(map[core.Outcome]bool, len(filter))
	for _, o := range filter {
		set[o] = true
	}
	return set
}
