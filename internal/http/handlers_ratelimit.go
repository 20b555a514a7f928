package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/quizgate/internal/domain/ratelimit"
	apperrors "github.com/target/quizgate/internal/errors"
)

type rateLimitRequest struct {
	Action     string `json:"action"`
	Identifier string `json:"identifier"`
}

type rateLimitResponse struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	ResetTime int64  `json:"resetTime"`
	Error     string `json:"error,omitempty"`
}

// RateLimitHandlers exposes the Rate Gate to clients.
type RateLimitHandlers struct {
	Svc        RateLimiterInterface
	TrustProxy bool
	Logger     *slog.Logger
	Now        func() time.Time // Optional: defaults to time.Now
}

// Check records one attempt for an action and reports whether it is allowed.
// POST /api/rate-limit. The identifier defaults to the client IP.
func (h *RateLimitHandlers) Check(w http.ResponseWriter, r *http.Request) {
	var req rateLimitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	identifier := req.Identifier
	if identifier == "" {
		identifier = ClientIP(r, h.TrustProxy)
	}

	decision, err := h.Svc.CheckAndConsume(r.Context(), identifier, ratelimit.ParseAction(req.Action))
	if err != nil {
		if apperrors.IsValidation(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
			return
		}
		h.logger().ErrorContext(r.Context(), "rate check failed", "error", err)
		writeInternalError(w)
		return
	}

	if !decision.Allowed {
		now := time.Now()
		if h.Now != nil {
			now = h.Now()
		}
		writeRateLimited(w, decision, now)
		return
	}

	WriteJSON(w, http.StatusOK, rateLimitResponse{
		Allowed:   true,
		Remaining: decision.Remaining,
		ResetTime: decision.ResetAt.UnixMilli(),
	})
}

func (h *RateLimitHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
