package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/quizgate/config"
	"github.com/target/quizgate/internal/adapters/clock"
	httpx "github.com/target/quizgate/internal/http"
	"github.com/target/quizgate/internal/observability/prom"
	"github.com/target/quizgate/internal/observability/statsd"
	"github.com/target/quizgate/internal/ports"
	"github.com/target/quizgate/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	RateLimit     *service.RateLimitService
	Reaper        *service.ReaperService // nil when no store needs sweeping
	Observability ObservabilityContainer
	// HealthChecks ping the connected backends for /readyz.
	HealthChecks []httpx.HealthCheck
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// MetricsSink fans out to every enabled backend; nil when none is enabled.
	MetricsSink   statsd.Sink
	StatsD        *statsd.Client
	Prometheus    *prom.Collectors
	MetricsConfig config.ObservabilityMetricsConfig
}

// Close releases observability resources.
func (o ObservabilityContainer) Close() error {
	if o.StatsD == nil {
		return nil
	}
	return o.StatsD.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Clock       ports.Clock
	Logger      *slog.Logger
}

// buildObservability configures the StatsD and Prometheus sinks.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	out := ObservabilityContainer{MetricsConfig: cfg.Metrics}
	var sinks statsd.Multi

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  statsd.DefaultPrefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			out.StatsD = client
			sinks = append(sinks, client)
		}
	}

	if cfg.Prometheus.Enabled {
		out.Prometheus = prom.NewCollectors()
		sinks = append(sinks, out.Prometheus)
	}

	switch len(sinks) {
	case 0:
	case 1:
		out.MetricsSink = sinks[0]
	default:
		out.MetricsSink = sinks
	}
	return out
}

// NewServices builds the stores and services named in config.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)

	stores, err := BuildStores(StoreDeps{Config: cfg, DB: deps.DB, Redis: deps.RedisClient, Clock: clk})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build stores: %w", err)
	}

	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		Config: service.AuthServiceConfig{
			AdminPassword: cfg.Auth.AdminPassword,
			AdminSubject:  cfg.Auth.AdminSubject,
			Secret:        []byte(cfg.Auth.JWTSecret),
			TokenTTL:      cfg.Auth.TokenTTL,
		},
		Revocations: stores.Revocations,
		Clock:       clk,
		Logger:      logger,
		Metrics:     observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create auth service: %w", err)
	}

	rateSvc, err := service.NewRateLimitService(service.RateLimitServiceOptions{
		Store: stores.Rate,
		Config: service.RateLimitServiceConfig{
			Policies:      cfg.RateLimit.Policies(),
			StoreTimeout:  cfg.RateLimit.StoreTimeout,
			FailurePolicy: cfg.RateLimit.FailurePolicy,
		},
		Clock:   clk,
		Logger:  logger,
		Metrics: observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create rate limit service: %w", err)
	}

	var reaper *service.ReaperService
	if len(stores.Sweep) > 0 {
		reaper, err = service.NewReaperService(service.ReaperServiceOptions{
			Targets: stores.Sweep,
			Config:  cfg.Reaper,
			Clock:   clk,
			Logger:  logger,
			Metrics: observability.MetricsSink,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("create reaper service: %w", err)
		}
	}

	return ServiceContainer{
		Auth:          authSvc,
		RateLimit:     rateSvc,
		Reaper:        reaper,
		Observability: observability,
		HealthChecks:  healthChecks(deps.DB, deps.RedisClient),
	}, nil
}

// healthChecks covers only the backends that were connected for the selected stores.
func healthChecks(db *sql.DB, redisClient redis.UniversalClient) []httpx.HealthCheck {
	var checks []httpx.HealthCheck
	if db != nil {
		checks = append(checks, httpx.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, httpx.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return checks
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			reaper := deps.cfg.Services.Reaper
			if reaper == nil {
				deps.logger.InfoContext(ctx, "reaper has nothing to sweep; selected stores expire entries themselves")
				return nil
			}
			return reaper.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	return []backgroundService{
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds what startServices launched.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts every enabled service and blocks until a signal or a service error.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		quit:        quit,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit        <-chan os.Signal
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case <-cfg.quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
// The service context is already cancelled here, so HTTP shutdown gets a fresh deadline.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
