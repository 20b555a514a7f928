package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for the auth cookie.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// AllowedOrigins lists origins echoed in CORS responses. "*" allows any origin.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`

	// TrustProxy takes the client IP from the first X-Forwarded-For hop.
	// Enable only behind a proxy that overwrites the header.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`

	// ThrottleRPS and ThrottleBurst size the per-client token bucket. RPS <= 0 disables it.
	ThrottleRPS   float64 `env:"HTTP_THROTTLE_RPS"   envDefault:"10"`
	ThrottleBurst int     `env:"HTTP_THROTTLE_BURST" envDefault:"20"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	origins := make([]string, 0, len(h.AllowedOrigins))
	for _, o := range h.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	h.AllowedOrigins = origins

	if h.ThrottleRPS > 0 && h.ThrottleBurst < 1 {
		h.ThrottleBurst = 1
	}
}
