package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/target/quizgate/config"
	"github.com/target/quizgate/internal/adapters/clock"
	"github.com/target/quizgate/internal/observability/metrics"
	"github.com/target/quizgate/internal/observability/statsd"
	"github.com/target/quizgate/internal/ports"
	"golang.org/x/sync/errgroup"
)

// SweepTarget names a store the reaper cleans.
type SweepTarget struct {
	Name    string
	Sweeper ports.Sweeper
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Targets []SweepTarget       // Required: stores to sweep
	Config  config.ReaperConfig // Required: reaper configuration
	Clock   ports.Clock         // Optional: defaults to system time
	Logger  *slog.Logger        // Optional: structured logger
	Metrics statsd.Sink         // Optional: metrics sink (StatsD-compatible)
}

// ReaperService periodically removes state that can no longer affect a decision:
// elapsed rate windows and revocations past their token's expiry.
type ReaperService struct {
	targets []SweepTarget
	config  config.ReaperConfig
	clock   ports.Clock
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if len(opts.Targets) == 0 {
		return nil, errors.New("at least one sweep target is required")
	}
	for _, t := range opts.Targets {
		if t.Name == "" || t.Sweeper == nil {
			return nil, errors.New("sweep targets need a name and a sweeper")
		}
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized", "interval", opts.Config.Interval, "targets", len(opts.Targets))
	}

	return &ReaperService{
		targets: opts.Targets,
		config:  opts.Config,
		clock:   clk,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Spread instances that start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.SweepOnce(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// SweepOnce sweeps every target concurrently and returns the total removed.
// A failing target does not stop the others; their errors are joined.
func (s *ReaperService) SweepOnce(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	var (
		mu      sync.Mutex
		total   int64
		errs    []error
		g, gctx = errgroup.WithContext(ctx)
	)

	for _, target := range s.targets {
		g.Go(func() error {
			start := time.Now()
			removed, err := target.Sweeper.Sweep(gctx, now)
			metrics.EmitSweep(s.metrics, metrics.SweepMetric{
				Store:    target.Name,
				Removed:  removed,
				Duration: time.Since(start),
				Err:      suppressContextCancellation(err),
			})

			mu.Lock()
			defer mu.Unlock()
			total += removed
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", target.Name, err))
				return nil
			}
			if removed > 0 && s.logger != nil {
				s.logger.InfoContext(ctx, "swept expired entries", "store", target.Name, "count", removed)
			}
			return nil
		})
	}
	// Workers never return errors; failures are collected in errs.
	_ = g.Wait()

	if len(errs) > 0 {
		return total, fmt.Errorf("sweep failed: %w", errors.Join(errs...))
	}
	return total, nil
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *ReaperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
