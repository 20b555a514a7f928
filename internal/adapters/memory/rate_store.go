package memory

// Package memory provides in-process adapters for single-instance deployments.

import (
	"context"
	"sync"
	"time"

	"github.com/target/quizgate/internal/domain/ratelimit"
	"github.com/target/quizgate/internal/ports"
)

var (
	_ ports.RateCounterStore = (*RateCounterStore)(nil)
	_ ports.Sweeper          = (*RateCounterStore)(nil)
)

type rateEntry struct {
	counter ratelimit.Counter
	window  time.Duration
}

// RateCounterStore keeps fixed-window counters in a map guarded by one mutex.
// It is safe for concurrent use.
type RateCounterStore struct {
	mu      sync.Mutex
	entries map[string]rateEntry
}

// NewRateCounterStore creates an empty store.
func NewRateCounterStore() *RateCounterStore {
	return &RateCounterStore{entries: make(map[string]rateEntry)}
}

// Consume applies one attempt for key. The whole read-step-write runs under the lock.
func (s *RateCounterStore) Consume(
	_ context.Context,
	key string,
	policy ratelimit.Policy,
	now time.Time,
) (ratelimit.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, decision := ratelimit.Step(s.entries[key].counter, policy, now)
	s.entries[key] = rateEntry{counter: next, window: policy.Window}
	return decision, nil
}

// Sweep drops counters whose window has elapsed.
func (s *RateCounterStore) Sweep(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for k, e := range s.entries {
		if e.counter.Expired(now, e.window) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked counters.
func (s *RateCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
