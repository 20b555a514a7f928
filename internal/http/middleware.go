package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainaccess "github.com/target/quizgate/internal/domain/access"
	domainauth "github.com/target/quizgate/internal/domain/auth"
	"github.com/target/quizgate/internal/domain/token"
	"github.com/target/quizgate/internal/observability/metrics"
	"github.com/target/quizgate/internal/observability/statsd"
	"github.com/target/quizgate/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
// When sink is non-nil it also records request count and latency per route pattern.
func Logging(logger *slog.Logger, sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", elapsed),
			)
			metrics.EmitHTTPRequest(sink, metrics.HTTPMetric{
				Method:   r.Method,
				Route:    routeLabel(r),
				Status:   ww.status,
				Duration: elapsed,
			})
		})
	}
}

// routeLabel keeps metric cardinality bounded: the mux pattern, never the raw path.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					writeInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that requires a valid token.
// If the token is missing or fails verification, it returns a 401 Unauthorized response.
// Internal failures are logged to logger, or slog.Default when nil.
func RequireAuth(authSvc AuthServiceInterface, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = orDefaultLogger(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authenticateRequest(w, r, authSvc, logger)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(SetClaimsInContext(r.Context(), claims)))
		})
	}
}

// RequireRole returns a middleware that requires a specific role.
// Admin routes are decided by the Access Gate; other roles by the role hierarchy.
// If the caller lacks the role, it returns a 403 Forbidden response.
func RequireRole(authSvc AuthServiceInterface, requiredRole domainauth.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = orDefaultLogger(logger)
	class := domainaccess.ResourceGeneral
	if requiredRole == domainauth.RoleAdmin {
		class = domainaccess.ResourceAdmin
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := authenticateRequest(w, r, authSvc, logger)
			if !ok {
				return
			}

			decision := authSvc.Authorize(r.Context(), claims, class)
			if !decision.Allowed || !claims.Role.AtLeast(requiredRole) {
				msg := "insufficient permissions"
				if decision.Reason == domainaccess.ReasonAdminRequired {
					msg = msgAdminRequired
				}
				WriteJSON(w, http.StatusForbidden, authResponse{
					Authenticated: true,
					Authorized:    boolPtr(false),
					Error:         msg,
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(SetClaimsInContext(r.Context(), claims)))
		})
	}
}

// authenticateRequest extracts and verifies the token, writing the 401/500 response on failure.
func authenticateRequest(
	w http.ResponseWriter,
	r *http.Request,
	authSvc AuthServiceInterface,
	logger *slog.Logger,
) (token.Claims, bool) {
	tok := TokenFromRequest(r)
	if tok == "" {
		WriteJSON(w, http.StatusUnauthorized, authResponse{Error: msgNoToken})
		return token.Claims{}, false
	}

	claims, err := authSvc.Authenticate(r.Context(), tok)
	if err != nil {
		if service.IsAuthFailure(err) {
			WriteJSON(w, http.StatusUnauthorized, authResponse{Error: msgInvalidToken})
			return token.Claims{}, false
		}
		logger.ErrorContext(r.Context(), "token authentication failed", "error", err)
		writeInternalError(w)
		return token.Claims{}, false
	}
	return claims, true
}

func orDefaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// CORS echoes the request Origin when it is allowed and answers preflight requests.
// An allowed list containing "*" accepts any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAny || allowed[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps request bodies at n bytes.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
