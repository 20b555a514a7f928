package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/quizgate/internal/domain/ratelimit"
	apperrors "github.com/target/quizgate/internal/errors"
)

const validSecret = "0123456789abcdef0123456789abcdef-test"

func parseEnv(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: vars}))
	cfg.Sanitize()
	return cfg
}

func validEnv() map[string]string {
	return map[string]string{
		"ADMIN_PASSWORD": "correct horse battery staple",
		"JWT_SECRET":     validSecret,
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseEnv(t, validEnv())

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminSubject)
	assert.Equal(t, RevocationStoreNone, cfg.Auth.RevocationStore)
	assert.Equal(t, RateLimitStoreMemory, cfg.RateLimit.Store)
	assert.Equal(t, ratelimit.FailClosed, cfg.RateLimit.FailurePolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.StoreTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Reaper.Interval)
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsReaperEnabled())
	assert.False(t, cfg.NeedsRedis())
	assert.False(t, cfg.NeedsPostgres())

	policies := cfg.RateLimit.Policies()
	assert.Equal(t, ratelimit.Policy{Max: 5, Window: 15 * time.Minute}, policies.For(ratelimit.ActionLogin))
	assert.Equal(t, ratelimit.Policy{Max: 10, Window: time.Hour}, policies.For(ratelimit.ActionPayment))
	assert.Equal(t, ratelimit.Policy{Max: 20, Window: time.Hour}, policies.For(ratelimit.ActionDefault))
}

func TestAppConfig_ValidateSecrets(t *testing.T) {
	tests := []struct {
		name  string
		vars  map[string]string
		field string
	}{
		{"missing password", map[string]string{"JWT_SECRET": validSecret}, "ADMIN_PASSWORD"},
		{"blank password", map[string]string{"ADMIN_PASSWORD": "   ", "JWT_SECRET": validSecret}, "ADMIN_PASSWORD"},
		{"shipped password", map[string]string{"ADMIN_PASSWORD": "karmik1996", "JWT_SECRET": validSecret}, "ADMIN_PASSWORD"},
		{"missing secret", map[string]string{"ADMIN_PASSWORD": "s3cure-enough"}, "JWT_SECRET"},
		{
			"shipped secret",
			map[string]string{"ADMIN_PASSWORD": "s3cure-enough", "JWT_SECRET": "default-secret-change-in-production"},
			"JWT_SECRET",
		},
		{
			"changeme secret",
			map[string]string{"ADMIN_PASSWORD": "s3cure-enough", "JWT_SECRET": "CHANGEME-0123456789abcdef0123456789"},
			"JWT_SECRET",
		},
		{"short secret", map[string]string{"ADMIN_PASSWORD": "s3cure-enough", "JWT_SECRET": "too-short"}, "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseEnv(t, tt.vars)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsConfiguration(err), "want configuration error, got %v", err)
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestAppConfig_ValidateOther(t *testing.T) {
	vars := validEnv()
	vars["TOKEN_TTL"] = "500ms"
	cfg := parseEnv(t, vars)
	assert.Equal(t, "TOKEN_TTL", apperrors.GetField(cfg.Validate()))

	vars = validEnv()
	vars["RATE_LIMIT_LOGIN_MAX"] = "0"
	cfg = parseEnv(t, vars)
	assert.True(t, apperrors.IsConfiguration(cfg.Validate()))

	vars = validEnv()
	vars["SERVICES"] = "http,scheduler"
	cfg = parseEnv(t, vars)
	assert.Equal(t, "SERVICES", apperrors.GetField(cfg.Validate()))
}

func TestAppConfig_Overrides(t *testing.T) {
	vars := validEnv()
	vars["RATE_LIMIT_STORE"] = "REDIS"
	vars["RATE_LIMIT_FAILURE_POLICY"] = "open"
	vars["RATE_LIMIT_STORE_TIMEOUT"] = "0s"
	vars["REVOCATION_STORE"] = "postgres"
	vars["HTTP_ALLOWED_ORIGINS"] = "https://quiz.example.com/, ,http://localhost:3000"
	vars["REAPER_INTERVAL"] = "10s"
	vars["SERVICES"] = "http,reaper"

	cfg := parseEnv(t, vars)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, RateLimitStoreRedis, cfg.RateLimit.Store)
	assert.Equal(t, ratelimit.FailOpen, cfg.RateLimit.FailurePolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.StoreTimeout)
	assert.Equal(t, []string{"https://quiz.example.com", "http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.Reaper.Interval)
	assert.True(t, cfg.NeedsRedis())
	assert.True(t, cfg.NeedsPostgres())
	assert.True(t, cfg.IsReaperEnabled())
}

func TestAppConfig_InvalidEnum(t *testing.T) {
	var cfg AppConfig
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{"REVOCATION_STORE": "sqlite"}})
	require.Error(t, err)
}

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{"http", "http", map[ServiceMode]bool{ServiceModeHTTP: true}, false},
		{"both with spaces", " http , reaper ", map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeReaper: true}, false},
		{"duplicates", "reaper,reaper", map[ServiceMode]bool{ServiceModeReaper: true}, false},
		{"empty", "", nil, true},
		{"only commas", ",,", nil, true},
		{"unknown", "http,worker", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"password", " Secret ", "ADMIN", "please-change-me-now", "x-change-in-production"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"correct horse battery staple", validSecret} {
		assert.False(t, IsPlaceholder(v), v)
	}
}
