// Package redis provides the production Store backed by Redis.
//
// Layout per user:
//
//	rec:{user}:iv:{id}   JSON intervention document, native EX expiry
//	rec:{user}:ividx     ZSET of intervention IDs scored by created_at (unix nanos)
//	rec:{user}:rf:{id}   JSON reflection document, native EX expiry
//	rec:{user}:rfidx     ZSET of reflection IDs scored by created_at
//
// Documents carry their own expiry through Redis EX, so a read that misses a
// document treats it as expired. Index entries outlive their documents until
// Sweep prunes them; reads tolerate the gap. Similarity is computed
// in-process over the user's bounded corpus rather than with a server-side
// vector index, which keeps the backend a plain Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neurobloom/recall-go-sdk/core"
	"github.com/neurobloom/recall-go-sdk/memory"
)

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Dimensions is the embedding dimension enforced at the write boundary.
	Dimensions int

	// ConnectTimeout bounds connection establishment. Default 5s.
	ConnectTimeout time.Duration
}

// Store implements memory.Store on Redis.
type Store struct {
	client     *redis.Client
	dimensions int
}

var _ memory.Store = (*Store)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(opts Options) (*Store, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("redis: dimensions must be positive, got %d", opts.Dimensions)
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	return &Store{client: client, dimensions: opts.Dimensions}, nil
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client, dimensions int) *Store {
	return &Store{client: client, dimensions: dimensions}
}

func ivKey(userID, id string) string { return fmt.Sprintf("rec:%s:iv:%s", userID, id) }
func ivIdxKey(userID string) string  { return fmt.Sprintf("rec:%s:ividx", userID) }
func rfKey(userID, id string) string { return fmt.Sprintf("rec:%s:rf:%s", userID, id) }
func rfIdxKey(userID string) string  { return fmt.Sprintf("rec:%s:rfidx", userID) }

// Put validates and writes an intervention document plus its index entry.
func (s *Store) Put(ctx context.Context, iv *core.Intervention) (string, error) {
	if err := core.ValidateIntervention(iv, s.dimensions); err != nil {
		return "", err
	}

	data, err := json.Marshal(iv)
	if err != nil {
		return "", fmt.Errorf("failed to marshal intervention: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ivKey(iv.UserID, iv.ID), data, iv.TTL)
	pipe.ZAdd(ctx, ivIdxKey(iv.UserID), redis.Z{
		Score:  float64(iv.CreatedAt.UnixNano()),
		Member: iv.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	return iv.ID, nil
}

// Query loads the user's live interventions and ranks them by cosine
// similarity in-process. Ties resolve to the more recent record.
func (s *Store) Query(ctx context.Context, userID string, embedding []float32, k int, filter []core.Outcome) ([]memory.ScoredIntervention, error) {
	if err := core.ValidateEmbedding(embedding, s.dimensions); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	ivs, err := s.loadInterventions(ctx, userID)
	if err != nil {
		return nil, err
	}

	allowed := outcomeSet(filter)
	scored := make([]memory.ScoredIntervention, 0, len(ivs))
	for _, iv := range ivs {
		if allowed != nil && !allowed[iv.Outcome] {
			continue
		}
		scored = append(scored, memory.ScoredIntervention{
			Intervention: iv,
			Similarity:   memory.CosineSimilarity(embedding, iv.Embedding),
		})
	}

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

// Count returns the number of live intervention documents for userID.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	ivs, err := s.loadInterventions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ivs), nil
}

// loadInterventions fetches every document the index points at, skipping
// entries whose document has expired, and lazily filtering on the record's
// own TTL as a second line of defense.
func (s *Store) loadInterventions(ctx context.Context, userID string) ([]core.Intervention, error) {
	ids, err := s.client.ZRange(ctx, ivIdxKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ivKey(userID, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	now := time.Now()
	ivs := make([]core.Intervention, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // expired; index entry lingers until Sweep
		}
		var iv core.Intervention
		if err := json.Unmarshal([]byte(raw), &iv); err != nil {
			continue
		}
		if iv.Expired(now) {
			continue
		}
		ivs = append(ivs, iv)
	}
	return ivs, nil
}

// PutReflection validates and writes a reflection document plus its index
// entry.
func (s *Store) PutReflection(ctx context.Context, r *core.Reflection) (string, error) {
	if err := core.ValidateReflection(r); err != nil {
		return "", err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reflection: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, rfKey(r.UserID, r.ID), data, r.TTL)
	pipe.ZAdd(ctx, rfIdxKey(r.UserID), redis.Z{
		Score:  float64(r.CreatedAt.UnixNano()),
		Member: r.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}
	return r.ID, nil
}

// RecentReflections returns up to limit live reflections, most recent first.
func (s *Store) RecentReflections(ctx context.Context, userID string, limit int) ([]core.Reflection, error) {
	if limit <= 0 {
		return nil, nil
	}

	// Newest-first from the index; overfetch to cover expired documents
	// whose index entries have not been swept yet.
	ids, err := s.client.ZRevRange(ctx, rfIdxKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	now := time.Now()
	out := make([]core.Reflection, 0, limit)
	for _, id := range ids {
		raw, err := s.client.Get(ctx, rfKey(userID, id)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
		}
		var r core.Reflection
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			continue
		}
		if r.Expired(now) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ReflectionCount returns the number of live reflections for userID.
func (s *Store) ReflectionCount(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.ZRange(ctx, rfIdxKey(userID), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	n := 0
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, rfKey(userID, id)).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
		}
		if exists > 0 {
			n++
		}
	}
	return n, nil
}

// Sweep prunes index entries whose documents have expired. The documents
// themselves are reclaimed by Redis EX; this pass only keeps the indexes
// from growing without bound.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	removed := 0

	for _, pattern := range []string{"rec:*:ividx", "rec:*:rfidx"} {
		iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			idxKey := iter.Val()
			n, err := s.sweepIndex(ctx, idxKey)
			if err != nil {
				return removed, err
			}
			removed += n
		}
		if err := iter.Err(); err != nil {
			return removed, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
		}
	}
	return removed, nil
}

func (s *Store) sweepIndex(ctx context.Context, idxKey string) (int, error) {
	ids, err := s.client.ZRange(ctx, idxKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
	}

	// rec:{user}:ividx -> rec:{user}:iv:{id}
	docPrefix := idxKey[:len(idxKey)-len("idx")] + ":"

	removed := 0
	for _, id := range ids {
		exists, err := s.client.Exists(ctx, docPrefix+id).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
		}
		if exists == 0 {
			if err := s.client.ZRem(ctx, idxKey, id).Err(); err != nil {
				return removed, fmt.Errorf("%w: %v", memory.ErrStoreUnavailable, err)
			}
			removed++
		}
	}
	return removed, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
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
