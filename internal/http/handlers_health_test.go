package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	t.Run("GET", func(t *testing.T) {
		rec := httptest.NewRecorder()
		healthHandler(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("HEAD has no body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		healthHandler(rec, httptest.NewRequest(http.MethodHead, PathHealth, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Zero(t, rec.Body.Len())
	})
}

func TestReadyHandler(t *testing.T) {
	ok := HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "postgres", Check: func(context.Context) error {
		return errors.New("dial tcp 10.0.0.5:5432: connection refused")
	}}

	tests := []struct {
		name     string
		checks   []HealthCheck
		wantCode int
		wantBody string
	}{
		{
			name:     "no backends",
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok"}`,
		},
		{
			name:     "all healthy",
			checks:   []HealthCheck{ok},
			wantCode: http.StatusOK,
			wantBody: `{"status":"ok","checks":{"redis":"ok"}}`,
		},
		{
			name:     "one failing",
			checks:   []HealthCheck{ok, down},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"status":"unavailable","checks":{"redis":"ok","postgres":"error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			readyHandler(tt.checks, nil)(rec, httptest.NewRequest(http.MethodGet, PathReady, nil))

			require.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "10.0.0.5", "failure details must not leak")
		})
	}
}
