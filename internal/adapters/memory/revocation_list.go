package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/target/quizgate/internal/ports"
)

var (
	_ ports.RevocationStore = (*RevocationList)(nil)
	_ ports.Sweeper         = (*RevocationList)(nil)
)

// RevocationList is an in-process deny-list of token IDs.
type RevocationList struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   ports.Clock
}

// NewRevocationList creates an empty list that reads time from clock.
func NewRevocationList(clock ports.Clock) *RevocationList {
	return &RevocationList{
		entries: make(map[string]time.Time),
		clock:   clock,
	}
}

// Revoke denies id until expiresAt. A later expiry replaces an earlier one.
func (l *RevocationList) Revoke(_ context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return errors.New("token id cannot be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.entries[id]; !ok || expiresAt.After(cur) {
		l.entries[id] = expiresAt
	}
	return nil
}

// IsRevoked reports whether id is denied at the clock's current time.
func (l *RevocationList) IsRevoked(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	l.mu.RLock()
	exp, ok := l.entries[id]
	l.mu.RUnlock()
	return ok && exp.After(l.clock.Now()), nil
}

// Sweep drops entries that expired at or before now.
func (l *RevocationList) Sweep(_ context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int64
	for id, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed, nil
}
