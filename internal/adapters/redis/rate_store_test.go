package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/quizgate/internal/domain/ratelimit"
	"github.com/target/quizgate/internal/testutil"
)

func TestRateCounterStore_Saturation(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewRateCounterStore(client)
	ctx := context.Background()
	policy := ratelimit.Policy{Max: 5, Window: 900 * time.Second}
	now := time.Unix(50_000, 0)

	for i := 0; i < 5; i++ {
		d, err := store.Consume(ctx, "login:1.2.3.4", policy, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 4-i, d.Remaining)
		assert.Equal(t, now.Add(900*time.Second).Unix(), d.ResetAt.Unix())
	}

	d, err := store.Consume(ctx, "login:1.2.3.4", policy, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, now.Add(900*time.Second).Unix(), d.ResetAt.Unix())

	// A new window starts once the old one has elapsed.
	d, err = store.Consume(ctx, "login:1.2.3.4", policy, now.Add(900*time.Second))
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
	assert.Equal(t, now.Add(1800*time.Second).Unix(), d.ResetAt.Unix())
}

func TestRateCounterStore_KeysAreIndependent(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewRateCounterStore(client)
	ctx := context.Background()
	policy := ratelimit.Policy{Max: 1, Window: time.Minute}
	now := time.Unix(1000, 0)

	d, err := store.Consume(ctx, "login:a", policy, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = store.Consume(ctx, "login:a", policy, now)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = store.Consume(ctx, "login:b", policy, now)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateCounterStore_UsesPrefixAndTTL(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store := NewRateCounterStoreWithPrefix(client, "test:")
	policy := ratelimit.Policy{Max: 3, Window: time.Minute}

	_, err := store.Consume(context.Background(), "default:x", policy, time.Unix(1000, 0))
	require.NoError(t, err)

	assert.True(t, srv.Exists("test:default:x"))
	assert.Equal(t, "1", srv.HGet("test:default:x", "count"))
	assert.Equal(t, time.Minute, srv.TTL("test:default:x"))

	srv.FastForward(time.Minute)
	assert.False(t, srv.Exists("test:default:x"))
}

func TestRateCounterStore_ConcurrentConsumers(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewRateCounterStore(client)
	policy := ratelimit.Policy{Max: 5, Window: time.Hour}
	now := time.Unix(1000, 0)

	const callers = 20
	results := make(chan bool, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			d, err := store.Consume(context.Background(), "login:attacker", policy, now)
			assert.NoError(t, err)
			results <- d.Allowed
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestRateCounterStore_InvalidInput(t *testing.T) {
	client, _ := testutil.SetupTestRedis(t)
	store := NewRateCounterStore(client)

	_, err := store.Consume(context.Background(), "", ratelimit.Policy{Max: 1, Window: time.Minute}, time.Now())
	require.Error(t, err)

	_, err = store.Consume(context.Background(), "k", ratelimit.Policy{Max: 0, Window: time.Minute}, time.Now())
	require.Error(t, err)
}

func TestRateCounterStore_Unreachable(t *testing.T) {
	client, srv := testutil.SetupTestRedis(t)
	store := NewRateCounterStore(client)
	srv.Close()

	_, err := store.Consume(context.Background(), "login:x", ratelimit.Policy{Max: 1, Window: time.Minute}, time.Now())
	require.Error(t, err)
}
