package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/target/quizgate/internal/adapters/clock"
	"github.com/target/quizgate/internal/domain/ratelimit"
	apperrors "github.com/target/quizgate/internal/errors"
	"github.com/target/quizgate/internal/observability/metrics"
	"github.com/target/quizgate/internal/observability/statsd"
	"github.com/target/quizgate/internal/ports"
)

// RateLimitServiceConfig holds the Rate Gate settings.
type RateLimitServiceConfig struct {
	Policies      ratelimit.Policies
	StoreTimeout  time.Duration           // Optional: defaults to 250ms
	FailurePolicy ratelimit.FailurePolicy // Optional: defaults to closed
}

// RateLimitServiceOptions groups dependencies for RateLimitService.
type RateLimitServiceOptions struct {
	Store   ports.RateCounterStore // Required: counter store
	Config  RateLimitServiceConfig // Required: policies
	Clock   ports.Clock            // Optional: defaults to system time
	Logger  *slog.Logger           // Optional: structured logger
	Metrics statsd.Sink            // Optional: metrics sink (StatsD-compatible)
}

// RateLimitService is the Rate Gate: a fixed-window attempt counter per (identifier, action).
type RateLimitService struct {
	store    ports.RateCounterStore
	policies ratelimit.Policies
	timeout  time.Duration
	failure  ratelimit.FailurePolicy
	clock    ports.Clock
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewRateLimitService constructs a new RateLimitService.
func NewRateLimitService(opts RateLimitServiceOptions) (*RateLimitService, error) {
	if opts.Store == nil {
		return nil, errors.New("RateCounterStore is required")
	}
	if err := opts.Config.Policies.Validate(); err != nil {
		return nil, err
	}

	timeout := opts.Config.StoreTimeout
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	failure := opts.Config.FailurePolicy
	if failure == "" {
		failure = ratelimit.FailClosed
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RateLimitService{
		store:    opts.Store,
		policies: opts.Config.Policies,
		timeout:  timeout,
		failure:  failure,
		clock:    clk,
		logger:   logger.With("component", "ratelimit_service"),
		metrics:  opts.Metrics,
	}, nil
}

// Policy returns the policy that applies to action.
func (s *RateLimitService) Policy(action ratelimit.Action) ratelimit.Policy {
	return s.policies.For(action)
}

// CheckAndConsume records one attempt for identifier under action and reports whether it is allowed.
// Actions without a configured policy share the default policy and counter namespace.
// A store failure never surfaces as an error: the configured failure policy decides instead.
func (s *RateLimitService) CheckAndConsume(
	ctx context.Context,
	identifier string,
	action ratelimit.Action,
) (ratelimit.Decision, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ratelimit.Decision{}, apperrors.ValidationField("identifier", "is required")
	}
	if _, ok := s.policies[action.PolicyAction()]; !ok {
		action = ratelimit.ActionDefault
	}
	policy := s.policies.For(action)
	now := s.clock.Now()

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	decision, err := s.store.Consume(storeCtx, ratelimit.Key(identifier, action), policy, now)
	if err != nil {
		decision = s.failure.Fallback(policy, now)
		s.logger.WarnContext(ctx, "rate counter store failed, applying failure policy",
			"action", action,
			"failure_policy", s.failure,
			"allowed", decision.Allowed,
			"error", err,
		)
		metrics.EmitRateStoreError(s.metrics, metrics.RateStoreErrorMetric{
			Action: string(action),
			Policy: string(s.failure),
			Err:    err,
		})
	}

	metrics.EmitRateCheck(s.metrics, metrics.RateCheckMetric{Action: string(action), Allowed: decision.Allowed})
	if !decision.Allowed {
		s.logger.InfoContext(ctx, "rate limit exceeded", "action", action, "reset_at", decision.ResetAt)
	}
	return decision, nil
}
