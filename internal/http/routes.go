package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/target/quizgate/internal/domain/auth"
)

// Paths that bypass the client throttle.
const (
	PathHealth  = "/healthz"
	PathReady   = "/readyz"
	PathMetrics = "/metrics"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth      AuthServiceInterface
	RateLimit RateLimiterInterface

	// HealthChecks are pinged by /readyz. Empty means always ready.
	HealthChecks []HealthCheck

	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler

	// Configuration
	CookieDomain   string
	AllowedOrigins []string
	TrustProxy     bool
	ThrottleRPS    float64
	ThrottleBurst  int

	Logger *slog.Logger     // Logger for handler errors (optional)
	Now    func() time.Time // Optional: defaults to time.Now
}

// NewRouter creates and configures the HTTP router.
// Order: CORS -> Throttle -> LimitBody -> mux.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Limiter:      services.RateLimit,
		CookieDomain: services.CookieDomain,
		TrustProxy:   services.TrustProxy,
		Logger:       services.Logger,
		Now:          services.Now,
	}
	rateHandlers := &RateLimitHandlers{
		Svc:        services.RateLimit,
		TrustProxy: services.TrustProxy,
		Logger:     services.Logger,
		Now:        services.Now,
	}

	registerAuthRoutes(mux, authHandlers)
	registerRateLimitRoutes(mux, rateHandlers)
	registerContentRoutes(mux, services.Auth, services.Logger)

	mux.Handle("GET "+PathHealth, http.HandlerFunc(healthHandler))
	mux.Handle("HEAD "+PathHealth, http.HandlerFunc(healthHandler))
	mux.Handle("GET "+PathReady, readyHandler(services.HealthChecks, services.Logger))
	if services.MetricsHandler != nil {
		mux.Handle("GET "+PathMetrics, services.MetricsHandler)
	}

	var h http.Handler = mux
	h = LimitBody(MaxBodyBytes)(h)
	h = Throttle(ThrottleOptions{
		RPS:        services.ThrottleRPS,
		Burst:      services.ThrottleBurst,
		TrustProxy: services.TrustProxy,
		Exempt:     []string{PathHealth, PathReady, PathMetrics},
	})(h)
	h = CORS(services.AllowedOrigins)(h)
	return h
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/auth/verify", h.Verify)
	mux.HandleFunc("GET /api/auth/verify/admin", h.Verify)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
}

func registerRateLimitRoutes(mux *http.ServeMux, h *RateLimitHandlers) {
	mux.HandleFunc("POST /api/rate-limit", h.Check)
}

func registerContentRoutes(mux *http.ServeMux, authSvc AuthServiceInterface, logger *slog.Logger) {
	mux.Handle("GET /api/content", RequireAuth(authSvc, logger)(http.HandlerFunc(contentHandler)))
	mux.Handle("GET /api/admin/content",
		RequireRole(authSvc, domainauth.RoleAdmin, logger)(http.HandlerFunc(contentHandler)))
}
