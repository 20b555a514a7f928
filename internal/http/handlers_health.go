package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readinessTimeout bounds each backend ping in /readyz.
const readinessTimeout = 2 * time.Second

// HealthCheck is one backend checked by the readiness endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler reports liveness. It never touches a backend.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// readyHandler pings every configured backend and answers 503 when any fails.
// Failure details stay in the logs; the body only names the failing check.
func readyHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK

		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := c.Check(ctx)
			cancel()
			if err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", "check", c.Name, "error", err)
				resp.Checks[c.Name] = "error"
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		WriteJSON(w, code, resp)
	}
}
