package memory_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neurobloom/recall-go-sdk/memory"
)

// countingStore records Sweep calls; every other method is unused here.
type countingStore struct {
	memory.Store
	sweeps atomic.Int32
}

func (s *countingStore) Sweep(ctx context.Context) (int, error) {
	s.sweeps.Add(1)
	return 0, nil
}

func (s *countingStore) Close() error { return nil }

func TestSweeperRunsPeriodically(t *testing.T) {
	store := &countingStore{}
	sweeper := memory.NewSweeper(store, 20*time.Millisecond)
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for store.sweeps.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper ran %d times, want at least 2", store.sweeps.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	store := &countingStore{}
	sweeper := memory.NewSweeper(store, time.Hour)

	sweeper.Stop()
	sweeper.Stop()

	n := store.sweeps.Load()
	time.Sleep(30 * time.Millisecond)
	if store.sweeps.Load() != n {
		t.Error("sweeper kept running after Stop")
	}
}
