package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainaccess "github.com/target/quizgate/internal/domain/access"
	"github.com/target/quizgate/internal/domain/ratelimit"
	"github.com/target/quizgate/internal/domain/token"
	"github.com/target/quizgate/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Login(ctx context.Context, password string) (service.LoginResult, error)
	Authenticate(ctx context.Context, tok string) (token.Claims, error)
	Authorize(ctx context.Context, claims token.Claims, class domainaccess.ResourceClass) domainaccess.Decision
	Logout(ctx context.Context, tok string) error
}

// RateLimiterInterface defines the Rate Gate operation used by handlers.
type RateLimiterInterface interface {
	CheckAndConsume(ctx context.Context, identifier string, action ratelimit.Action) (ratelimit.Decision, error)
}

// Client-facing messages. Token failures share one message so callers learn nothing about the stage.
const (
	msgInvalidPassword = "invalid password"
	msgNoToken         = "no authentication token provided"
	msgInvalidToken    = "invalid or expired token"
	msgAdminRequired   = "admin access required"
	msgAccessGranted   = "access granted"
	msgTooManyAttempts = "too many attempts, try again later"
)

// authResponse is the body of every auth endpoint.
type authResponse struct {
	Authenticated bool   `json:"authenticated"`
	Authorized    *bool  `json:"authorized,omitempty"`
	Role          string `json:"role,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Token         string `json:"token,omitempty"`
	ExpiresIn     int64  `json:"expiresIn,omitempty"`
	ExpiresAt     int64  `json:"expiresAt,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

type loginRequest struct {
	Password string `json:"password"`
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Limiter      RateLimiterInterface
	CookieDomain string
	TrustProxy   bool
	Logger       *slog.Logger
	Now          func() time.Time // Optional: defaults to time.Now
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Login exchanges the admin password for a session token.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Limiter != nil {
		decision, err := h.Limiter.CheckAndConsume(ctx, ClientIP(r, h.TrustProxy), ratelimit.ActionLoginGate)
		if err != nil {
			h.logger().ErrorContext(ctx, "login rate check failed", "error", err)
			writeInternalError(w)
			return
		}
		if !decision.Allowed {
			writeRateLimited(w, decision, h.now())
			return
		}
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(ctx, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteJSON(w, http.StatusUnauthorized, authResponse{Error: msgInvalidPassword})
			return
		}
		h.logger().ErrorContext(ctx, "login failed", "error", err)
		writeInternalError(w)
		return
	}

	h.setAuthCookie(w, res.Token, res.ExpiresIn)
	WriteJSON(w, http.StatusOK, authResponse{
		Authenticated: true,
		Role:          string(res.Claims.Role),
		Token:         res.Token,
		ExpiresIn:     int64(res.ExpiresIn / time.Second),
	})
}

// Verify authenticates the presented token and applies the Access Gate to the requested path.
// GET /api/auth/verify and GET /api/auth/verify/admin. With TrustProxy, a forward-auth
// proxy may pass the original path in X-Forwarded-Uri.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tok := TokenFromRequest(r)
	if tok == "" {
		WriteJSON(w, http.StatusUnauthorized, authResponse{Error: msgNoToken})
		return
	}

	claims, err := h.Svc.Authenticate(ctx, tok)
	if err != nil {
		if service.IsAuthFailure(err) {
			WriteJSON(w, http.StatusUnauthorized, authResponse{Error: msgInvalidToken})
			return
		}
		h.logger().ErrorContext(ctx, "token authentication failed", "error", err)
		writeInternalError(w)
		return
	}

	class := requestedClass(r, h.TrustProxy)
	if decision := h.Svc.Authorize(ctx, claims, class); !decision.Allowed {
		WriteJSON(w, http.StatusForbidden, authResponse{
			Authenticated: true,
			Authorized:    boolPtr(false),
			Error:         msgAdminRequired,
		})
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		Authenticated: true,
		Authorized:    boolPtr(true),
		Role:          string(claims.Role),
		Subject:       claims.Subject,
		ExpiresAt:     claims.ExpiresAt,
		Message:       msgAccessGranted,
	})
}

// Logout revokes the presented token (when revocation is enabled) and clears the cookie.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if tok := TokenFromRequest(r); tok != "" {
		if err := h.Svc.Logout(ctx, tok); err != nil {
			h.logger().ErrorContext(ctx, "logout failed", "error", err)
			writeInternalError(w)
			return
		}
	}

	h.clearAuthCookie(w)
	WriteJSON(w, http.StatusOK, authResponse{Authenticated: false})
}

// setAuthCookie writes the session cookie. It is always Secure and SameSite=Strict.
func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl / time.Second),
	})
}

// clearAuthCookie expires the session cookie, mirroring the attributes used to set it.
func (h *AuthHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

// writeRateLimited writes a 429 with Retry-After in whole seconds.
func writeRateLimited(w http.ResponseWriter, d ratelimit.Decision, now time.Time) {
	retry := int64(d.RetryAfter(now) / time.Second)
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
	WriteJSON(w, http.StatusTooManyRequests, rateLimitResponse{
		Allowed:   false,
		Remaining: d.Remaining,
		ResetTime: d.ResetAt.UnixMilli(),
		Error:     msgTooManyAttempts,
	})
}

func boolPtr(b bool) *bool { return &b }
