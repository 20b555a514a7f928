package httpx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/quizgate/internal/domain/auth"
	"github.com/target/quizgate/internal/domain/token"
)

type recordingSink struct {
	mu     sync.Mutex
	counts map[string]map[string]string
	timing []string
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = map[string]map[string]string{}
	}
	s.counts[name] = tags
}

func (s *recordingSink) Gauge(string, float64, map[string]string) {}

func (s *recordingSink) Timing(name string, _ time.Duration, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timing = append(s.timing, name)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	sink := &recordingSink{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Logging(logger, sink)(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/items/42"`)

	tags := sink.counts["http.request"]
	require.NotNil(t, tags)
	assert.Equal(t, "GET /items/{id}", tags["route"])
	assert.Equal(t, "418", tags["status"])
	assert.Contains(t, sink.timing, "http.request.duration")
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":"internal"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCode   int
	}{
		{"listed origin echoed", []string{"https://quiz.example.com"}, "https://quiz.example.com", http.MethodGet, "https://quiz.example.com", http.StatusOK},
		{"unlisted origin", []string{"https://quiz.example.com"}, "https://evil.example", http.MethodGet, "", http.StatusOK},
		{"wildcard echoes origin", []string{"*"}, "https://any.example", http.MethodGet, "https://any.example", http.StatusOK},
		{"preflight", []string{"*"}, "https://any.example", http.MethodOptions, "https://any.example", http.StatusNoContent},
		{"no origin", []string{"*"}, "", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/auth/verify", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestRequireAuth_LogsInternalFailureToInjectedLogger(t *testing.T) {
	failing := &stubAuthService{authenticateFunc: func(context.Context, string) (token.Claims, error) {
		return token.Claims{}, errors.New("check revocation: connection refused")
	}}
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	})

	middlewares := map[string]func(*slog.Logger) func(http.Handler) http.Handler{
		"require auth": func(l *slog.Logger) func(http.Handler) http.Handler { return RequireAuth(failing, l) },
		"require role": func(l *slog.Logger) func(http.Handler) http.Handler {
			return RequireRole(failing, domainauth.RoleAdmin, l)
		},
	}
	for name, mw := range middlewares {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "http")

			req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
			req.Header.Set("Authorization", "Bearer a.b.c")
			rec := httptest.NewRecorder()
			mw(logger)(next).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
			assert.Contains(t, buf.String(), "token authentication failed")
			assert.Contains(t, buf.String(), `"component":"http"`)
			assert.Contains(t, buf.String(), "connection refused")
		})
	}
}
