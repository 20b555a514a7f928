package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/quizgate/internal/ports"
)

var _ ports.RevocationStore = (*RevocationStore)(nil)

// DefaultRevocationKeyPrefix namespaces revoked token IDs.
const DefaultRevocationKeyPrefix = "quizgate:revoked:"

// RevocationStore keeps revoked token IDs as keys whose TTL ends at the token's expiry,
// so Redis drops them without a sweeper.
type RevocationStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RevocationStoreOption configures a RevocationStore.
type RevocationStoreOption func(*RevocationStore)

// WithRevocationPrefix overrides the key prefix.
func WithRevocationPrefix(prefix string) RevocationStoreOption {
	return func(s *RevocationStore) { s.prefix = prefix }
}

// WithRevocationClock overrides the time source used to compute TTLs.
func WithRevocationClock(c ports.Clock) RevocationStoreOption {
	return func(s *RevocationStore) {
		if c != nil {
			s.now = c.Now
		}
	}
}

// NewRevocationStore creates a Redis-backed revocation store.
func NewRevocationStore(client redis.UniversalClient, opts ...RevocationStoreOption) *RevocationStore {
	s := &RevocationStore{
		client: client,
		prefix: DefaultRevocationKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revoke denies id until expiresAt. Entries that are already past expiry are not stored.
func (s *RevocationStore) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return errors.New("token ID cannot be empty")
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, s.prefix+id, expiresAt.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

// IsRevoked reports whether id is currently denied.
func (s *RevocationStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	n, err := s.client.Exists(ctx, s.prefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis is revoked: %w", err)
	}
	return n > 0, nil
}
