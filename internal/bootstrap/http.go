package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/quizgate/config"
	httpx "github.com/target/quizgate/internal/http"
	"github.com/target/quizgate/internal/observability/statsd"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: routerServices(appCfg, cfg.Services, logger),
		Metrics:  cfg.Services.Observability.MetricsSink,
	})

	// Start server (logs "starting HTTP server" internally)
	return startServer(logger, handler, appCfg.HTTP.Addr)
}

// routerServices maps the service container and HTTP config onto the router's dependencies.
func routerServices(appCfg *config.AppConfig, services ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	rs := httpx.RouterServices{
		CookieDomain:   appCfg.HTTP.CookieDomain,
		AllowedOrigins: appCfg.HTTP.AllowedOrigins,
		TrustProxy:     appCfg.HTTP.TrustProxy,
		ThrottleRPS:    appCfg.HTTP.ThrottleRPS,
		ThrottleBurst:  appCfg.HTTP.ThrottleBurst,
		HealthChecks:   services.HealthChecks,
		Logger:         logger,
	}
	// Avoid typed-nil interfaces so the router can detect missing services.
	if services.Auth != nil {
		rs.Auth = services.Auth
	}
	if services.RateLimit != nil {
		rs.RateLimit = services.RateLimit
	}
	if services.Observability.Prometheus != nil {
		rs.MetricsHandler = services.Observability.Prometheus.Handler()
	}
	return rs
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	Metrics  statsd.Sink
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	router := httpx.NewRouter(cfg.Services)

	// Order: Recover -> Logging -> Router
	h := httpx.Logging(cfg.Logger, cfg.Metrics)(router)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
