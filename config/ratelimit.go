package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/target/quizgate/internal/domain/ratelimit"
)

// RateLimitStoreKind selects the counter store backend.
type RateLimitStoreKind string

const (
	// RateLimitStoreMemory keeps counters in process. Suitable for a single instance.
	RateLimitStoreMemory RateLimitStoreKind = "memory"
	// RateLimitStoreRedis shares counters across instances.
	RateLimitStoreRedis RateLimitStoreKind = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for RateLimitStoreKind.
func (k *RateLimitStoreKind) UnmarshalText(text []byte) error {
	v := RateLimitStoreKind(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case RateLimitStoreMemory, RateLimitStoreRedis:
		*k = v
		return nil
	default:
		return fmt.Errorf("invalid RateLimitStore: %q (valid options: memory, redis)", string(text))
	}
}

// RateLimitConfig configures the Rate Gate.
type RateLimitConfig struct {
	LoginMax      int           `env:"RATE_LIMIT_LOGIN_MAX"      envDefault:"5"`
	LoginWindow   time.Duration `env:"RATE_LIMIT_LOGIN_WINDOW"   envDefault:"15m"`
	PaymentMax    int           `env:"RATE_LIMIT_PAYMENT_MAX"    envDefault:"10"`
	PaymentWindow time.Duration `env:"RATE_LIMIT_PAYMENT_WINDOW" envDefault:"1h"`
	DefaultMax    int           `env:"RATE_LIMIT_DEFAULT_MAX"    envDefault:"20"`
	DefaultWindow time.Duration `env:"RATE_LIMIT_DEFAULT_WINDOW" envDefault:"1h"`

	// Store selects the counter backend.
	Store RateLimitStoreKind `env:"RATE_LIMIT_STORE" envDefault:"memory"`

	// StoreTimeout bounds each store round-trip.
	StoreTimeout time.Duration `env:"RATE_LIMIT_STORE_TIMEOUT" envDefault:"250ms"`

	// FailurePolicy decides the outcome when the store fails: closed denies, open allows.
	FailurePolicy ratelimit.FailurePolicy `env:"RATE_LIMIT_FAILURE_POLICY" envDefault:"closed"`

	// KeyPrefix namespaces counters in a shared Redis.
	KeyPrefix string `env:"RATE_LIMIT_KEY_PREFIX" envDefault:"quizgate:ratelimit:"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.StoreTimeout <= 0 {
		r.StoreTimeout = 250 * time.Millisecond
	}
	if r.FailurePolicy == "" {
		r.FailurePolicy = ratelimit.FailClosed
	}
	if r.Store == "" {
		r.Store = RateLimitStoreMemory
	}
}

// Policies builds the per-action policies.
func (r *RateLimitConfig) Policies() ratelimit.Policies {
	return ratelimit.Policies{
		ratelimit.ActionLogin:   {Max: r.LoginMax, Window: r.LoginWindow},
		ratelimit.ActionPayment: {Max: r.PaymentMax, Window: r.PaymentWindow},
		ratelimit.ActionDefault: {Max: r.DefaultMax, Window: r.DefaultWindow},
	}
}

// Validate checks that every policy can be enforced.
func (r *RateLimitConfig) Validate() error {
	if err := r.Policies().Validate(); err != nil {
		return configErr("RATE_LIMIT", err.Error())
	}
	return nil
}
