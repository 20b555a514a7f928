package clock

// Package clock provides time sources that can be swapped for testing.

import (
	"sync"
	"time"

	"github.com/target/quizgate/internal/ports"
)

var (
	_ ports.Clock = System{}
	_ ports.Clock = (*Fixed)(nil)
)

// System reads the real wall clock.
type System struct{}

// Now returns the current system time.
func (System) Now() time.Time { return time.Now() }

// Fixed returns a settable time. It is safe for concurrent use.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed creates a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the fixed time.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set updates the fixed time (useful for testing time progression).
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

// Advance moves the fixed time forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}
