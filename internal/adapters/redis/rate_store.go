package redis

// Package redis provides Redis-backed adapters for deployments that run more than one instance.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/quizgate/internal/domain/ratelimit"
	"github.com/target/quizgate/internal/ports"
)

var _ ports.RateCounterStore = (*RateCounterStore)(nil)

// DefaultRateKeyPrefix namespaces rate counters in a shared Redis.
const DefaultRateKeyPrefix = "quizgate:ratelimit:"

// consumeScript runs the fixed-window step server-side so the check and the
// increment are one atomic operation per key.
//
// KEYS[1] counter hash; ARGV max, window_ms, now_ms.
// Returns {allowed(0|1), remaining, reset_at_ms}.
var consumeScript = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if start == nil or count == nil or now - start >= window then
  start = now
  count = 0
end

local allowed = 0
if count < max then
  count = count + 1
  allowed = 1
end

redis.call('HSET', KEYS[1], 'start', start, 'count', count)
redis.call('PEXPIRE', KEYS[1], start + window - now)

local remaining = max - count
if remaining < 0 then
  remaining = 0
end
return {allowed, remaining, start + window}
`)

// RateCounterStore keeps fixed-window counters in Redis hashes.
type RateCounterStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRateCounterStore creates a store using the default key prefix.
func NewRateCounterStore(client redis.UniversalClient) *RateCounterStore {
	return NewRateCounterStoreWithPrefix(client, DefaultRateKeyPrefix)
}

// NewRateCounterStoreWithPrefix creates a store with a custom key prefix.
func NewRateCounterStoreWithPrefix(client redis.UniversalClient, prefix string) *RateCounterStore {
	return &RateCounterStore{client: client, prefix: prefix}
}

// Consume applies one attempt for key under policy at now.
func (s *RateCounterStore) Consume(
	ctx context.Context,
	key string,
	policy ratelimit.Policy,
	now time.Time,
) (ratelimit.Decision, error) {
	if key == "" {
		return ratelimit.Decision{}, errors.New("rate limit key cannot be empty")
	}
	if err := policy.Validate(); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("consume %s: %w", key, err)
	}

	res, err := consumeScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		policy.Max, policy.Window.Milliseconds(), now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("redis consume %s: %w", key, err)
	}
	if len(res) != 3 {
		return ratelimit.Decision{}, fmt.Errorf("redis consume %s: unexpected reply length %d", key, len(res))
	}

	return ratelimit.Decision{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]).UTC(),
	}, nil
}
