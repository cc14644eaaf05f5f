package memory

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper periodically reclaims expired records. Sweeping is purely physical
// cleanup; visibility is enforced lazily on every read, so a delayed or
// stopped sweeper never changes what queries return.
type Sweeper struct {
	store    Store
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper starts a background goroutine sweeping the store at the given
// interval. Call Stop to shut it down.
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	removed, err := s.store.Sweep(ctx)
	if err != nil {
		log.Printf("[SWEEP] sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[SWEEP] reclaimed %d expired records", removed)
	}
}

// Stop halts the sweeper and waits for any in-flight sweep to finish. Safe to
// call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
