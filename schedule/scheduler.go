// Package schedule runs per-session check-in callbacks. Sessions register a
// deadline and a callback; the scheduler holds them in a min-heap and a single
// timer goroutine fires each callback once its deadline passes. Scheduling a
// session again replaces its previous deadline, so only the latest check-in
// per session ever fires.
package schedule

import (
	"container/heap"
	"log"
	"sync"
	"time"
)

// Callback runs when a check-in fires. Called from the scheduler goroutine;
// long work should be handed off.
type Callback func(sessionID string)

type entry struct {
	sessionID string
	at        time.Time
	callback  Callback
	index     int

	// seq breaks ties between equal deadlines, oldest first.
	seq uint64
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler fires one pending check-in per session.
type Scheduler struct {
	mu      sync.Mutex
	heap    entryHeap
	entries map[string]*entry
	seq     uint64
	wake    chan struct{}
	closed  bool

	done chan struct{}
}

// New starts the scheduler's timer goroutine. Call Close to shut it down.
func New() *Scheduler {
	s := &Scheduler{
		entries: make(map[string]*entry),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule registers a check-in for sessionID at the given time, replacing
// any check-in already pending for that session.
func (s *Scheduler) Schedule(sessionID string, at time.Time, cb Callback) {
	if cb == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if old, ok := s.entries[sessionID]; ok {
		heap.Remove(&s.heap, old.index)
	}
	s.seq++
	e := &entry{sessionID: sessionID, at: at, callback: cb, seq: s.seq}
	heap.Push(&s.heap, e)
	s.entries[sessionID] = e
	s.mu.Unlock()

	s.kick()
}

// Cancel removes the pending check-in for sessionID, if any. Returns whether
// one was pending.
func (s *Scheduler) Cancel(sessionID string) bool {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	if ok {
		heap.Remove(&s.heap, e.index)
		delete(s.entries, sessionID)
	}
	s.mu.Unlock()

	if ok {
		s.kick()
	}
	return ok
}

// Pending returns the number of sessions with a check-in scheduled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// Close stops the timer goroutine. Pending check-ins are discarded.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.kick()
	<-s.done
}

// kick nudges the timer goroutine to re-read the heap head.
func (s *Scheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}

		now := time.Now()
		var due []*entry
		for len(s.heap) > 0 && !s.heap[0].at.After(now) {
			e := heap.Pop(&s.heap).(*entry)
			delete(s.entries, e.sessionID)
			due = append(due, e)
		}

		var next time.Duration
		hasNext := len(s.heap) > 0
		if hasNext {
			next = time.Until(s.heap[0].at)
		}
		s.mu.Unlock()

		for _, e := range due {
			s.fire(e)
		}

		if hasNext {
			timer.Reset(next)
			select {
			case <-timer.C:
			case <-s.wake:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
		} else {
			<-s.wake
		}
	}
}

func (s *Scheduler) fire(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SCHEDULE] check-in callback panicked for %s: %v", e.sessionID, r)
		}
	}()
	e.callback(e.sessionID)
}
