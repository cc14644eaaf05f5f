package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurobloom/recall-go-sdk/core"
	"github.com/neurobloom/recall-go-sdk/memory/embedder/mock"
	redisstore "github.com/neurobloom/recall-go-sdk/memory/store/redis"
)

const dims = 8

func newTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := redisstore.NewWithClient(client, dims)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func embed(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := mock.New(dims).Embed(context.Background(), text)
	require.NoError(t, err)
	return vec
}

func newIntervention(t *testing.T, userID, text string, outcome core.Outcome, ttl time.Duration) *core.Intervention {
	t.Helper()
	return &core.Intervention{
		ID:               fmt.Sprintf("iv-%s-%d", text, time.Now().UnixNano()),
		UserID:           userID,
		InterventionText: text,
		ContextText:      "context for " + text,
		Outcome:          outcome,
		Embedding:        embed(t, text),
		CreatedAt:        time.Now(),
		TTL:              ttl,
	}
}

func TestPutAndQuery(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	iv := newIntervention(t, "u1", "suggest a focus timer", core.OutcomeTaskCompleted, time.Hour)
	id, err := store.Put(ctx, iv)
	require.NoError(t, err)
	assert.Equal(t, iv.ID, id)

	results, err := store.Query(ctx, "u1", embed(t, "suggest a focus timer"), 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, iv.ID, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Equal(t, core.OutcomeTaskCompleted, results[0].Outcome)
}

func TestPutRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	iv := newIntervention(t, "u1", "text", core.OutcomeUnknown, time.Hour)
	iv.Embedding = make([]float32, dims+1)
	iv.Embedding[0] = 1

	_, err := store.Put(ctx, iv)
	require.Error(t, err)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	count, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQueryOutcomeFilter(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, tc := range []struct {
		text    string
		outcome core.Outcome
	}{
		{"worked", core.OutcomeTaskCompleted},
		{"returned", core.OutcomeReEngaged},
		{"failed", core.OutcomeDistracted},
	} {
		_, err := store.Put(ctx, newIntervention(t, "u1", tc.text, tc.outcome, time.Hour))
		require.NoError(t, err)
	}

	results, err := store.Query(ctx, "u1", embed(t, "worked"), 10, core.SuccessfulOutcomes())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Outcome.Successful(), "filter leaked outcome %s", r.Outcome)
	}
}

func TestNativeExpiryHidesRecords(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	_, err := store.Put(ctx, newIntervention(t, "u1", "ephemeral", core.OutcomeTaskCompleted, time.Second))
	require.NoError(t, err)
	_, err = store.Put(ctx, newIntervention(t, "u1", "durable", core.OutcomeTaskCompleted, time.Hour))
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	results, err := store.Query(ctx, "u1", embed(t, "ephemeral"), 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "durable", results[0].InterventionText)

	count, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSweepPrunesIndexEntries(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	_, err := store.Put(ctx, newIntervention(t, "u1", "ephemeral", core.OutcomeTaskCompleted, time.Second))
	require.NoError(t, err)
	_, err = store.Put(ctx, newIntervention(t, "u1", "durable", core.OutcomeTaskCompleted, time.Hour))
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// Results unchanged after the sweep.
	results, err := store.Query(ctx, "u1", embed(t, "durable"), 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	removed, err = store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Put(ctx, newIntervention(t, "u1", "shared phrasing", core.OutcomeTaskCompleted, time.Hour))
	require.NoError(t, err)
	_, err = store.Put(ctx, newIntervention(t, "u2", "shared phrasing", core.OutcomeTaskCompleted, time.Hour))
	require.NoError(t, err)

	results, err := store.Query(ctx, "u1", embed(t, "shared phrasing"), 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "u1", results[0].UserID)
}

func TestReflections(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	base := time.Now()
	for i := 0; i < 4; i++ {
		r := &core.Reflection{
			ID:          fmt.Sprintf("rf-%d", i),
			UserID:      "u1",
			InsightText: fmt.Sprintf("insight %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			TTL:         time.Hour,
		}
		_, err := store.PutReflection(ctx, r)
		require.NoError(t, err)
	}

	got, err := store.RecentReflections(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "insight 3", got[0].InsightText)
	assert.Equal(t, "insight 1", got[2].InsightText)

	n, err := store.ReflectionCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	mr.FastForward(2 * time.Hour)

	got, err = store.RecentReflections(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}
