package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: credential, signing secret, token lifetime and revocation
//   - ratelimit.go: Rate Gate policies and counter store
//   - database.go: PostgreSQL and Redis connections
//   - http.go: HTTP server, cookies, CORS and throttling
//   - services.go: service mode and reaper configuration
//   - observability.go: StatsD and Prometheus
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Auth      AuthConfig
	RateLimit RateLimitConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	// Services is a comma-delimited list of enabled services (http, reaper).
	Services string `env:"SERVICES" envDefault:"http"`

	Reaper ReaperConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Auth.Sanitize()
	c.RateLimit.Sanitize()
	c.HTTP.Sanitize()
	c.Reaper.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// Validate reports the first setting that would make the service unsafe or unable to start.
// Every failure is a ConfigurationError.
func (c *AppConfig) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if _, err := c.GetEnabledServices(); err != nil {
		return configErr("SERVICES", err.Error())
	}
	return nil
}

// detectDevMode checks NODE_ENV as a fallback when DEV is unset.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReaper]
}

// NeedsRedis reports whether any selected store is backed by Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.RateLimit.Store == RateLimitStoreRedis || c.Auth.RevocationStore == RevocationStoreRedis
}

// NeedsPostgres reports whether any selected store is backed by PostgreSQL.
func (c *AppConfig) NeedsPostgres() bool {
	return c.Auth.RevocationStore == RevocationStorePostgres
}
