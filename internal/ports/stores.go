package ports

// Package ports defines interfaces (hexagonal ports) for session-authority state.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	"github.com/target/quizgate/internal/domain/ratelimit"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RateCounterStore holds fixed-window counters keyed by (identifier, action).
type RateCounterStore interface {
	// Consume applies one attempt for key under policy at now. The check and the
	// increment must be a single atomic step for concurrent callers sharing key.
	Consume(ctx context.Context, key string, policy ratelimit.Policy, now time.Time) (ratelimit.Decision, error)
}

// RevocationStore is a deny-list of token IDs that are no longer accepted.
type RevocationStore interface {
	// Revoke denies id until expiresAt. Revoking an already revoked id is not an error.
	Revoke(ctx context.Context, id string, expiresAt time.Time) error

	// IsRevoked reports whether id is currently denied.
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// Sweeper removes state that can no longer affect any decision.
type Sweeper interface {
	// Sweep deletes entries that expired at or before now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int64, error)
}
