package httpx

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ThrottleOptions sizes the per-client token bucket.
type ThrottleOptions struct {
	RPS        float64       // Required: refill rate; <= 0 disables the throttle
	Burst      int           // Required: bucket size
	IdleTTL    time.Duration // Optional: drop buckets idle this long; defaults to 10m
	TrustProxy bool          // Take the client from X-Forwarded-For
	Exempt     []string      // Paths that bypass the throttle
}

// Throttle answers 429 once a client exceeds its token bucket, before any handler runs.
// Buckets are keyed by client IP.
func Throttle(opts ThrottleOptions) func(http.Handler) http.Handler {
	if opts.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	ml := newMultiLimiter(rate.Limit(opts.RPS), opts.Burst, opts.IdleTTL)
	exempt := make(map[string]bool, len(opts.Exempt))
	for _, p := range opts.Exempt {
		exempt[p] = true
	}
	retryAfter := strconv.Itoa(max(1, int(1/opts.RPS)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if !ml.allow(ClientIP(r, opts.TrustProxy), time.Now()) {
				w.Header().Set("Retry-After", retryAfter)
				WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type multiLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	entries   map[string]*limBucket
}

type limBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newMultiLimiter(limit rate.Limit, burst int, ttl time.Duration) *multiLimiter {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &multiLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*limBucket),
	}
}

func (m *multiLimiter) allow(key string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.entries[key]
	if b == nil {
		b = &limBucket{lim: rate.NewLimiter(m.limit, m.burst)}
		m.entries[key] = b
	}
	b.lastSeen = now

	// Idle buckets are full again, so dropping them changes nothing.
	if now.Sub(m.lastSweep) > m.ttl {
		for k, v := range m.entries {
			if now.Sub(v.lastSeen) > m.ttl {
				delete(m.entries, k)
			}
		}
		m.lastSweep = now
	}
	return b.lim.AllowN(now, 1)
}

func (m *multiLimiter) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
