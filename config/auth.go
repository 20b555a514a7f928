package config

import (
	"fmt"
	"strings"
	"time"
)

// MinSecretBytes is the shortest accepted JWT_SECRET.
const MinSecretBytes = 32

// RevocationStoreKind selects where revoked token IDs are kept.
type RevocationStoreKind string

const (
	// RevocationStoreNone disables revocation; logout only clears the cookie.
	RevocationStoreNone RevocationStoreKind = "none"
	// RevocationStoreMemory keeps revoked IDs in process.
	RevocationStoreMemory RevocationStoreKind = "memory"
	// RevocationStoreRedis keeps revoked IDs in Redis with TTLs.
	RevocationStoreRedis RevocationStoreKind = "redis"
	// RevocationStorePostgres keeps revoked IDs in the revoked_tokens table.
	RevocationStorePostgres RevocationStoreKind = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for RevocationStoreKind.
func (k *RevocationStoreKind) UnmarshalText(text []byte) error {
	v := RevocationStoreKind(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case RevocationStoreNone, RevocationStoreMemory, RevocationStoreRedis, RevocationStorePostgres:
		*k = v
		return nil
	default:
		return fmt.Errorf("invalid RevocationStore: %q (valid options: none, memory, redis, postgres)", string(text))
	}
}

// AuthConfig groups credential, signing and token lifetime configuration.
type AuthConfig struct {
	// AdminPassword is the reference credential presented at login. Required.
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// JWTSecret signs and verifies tokens. Required, at least MinSecretBytes long.
	JWTSecret string `env:"JWT_SECRET"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"30m"`

	// AdminSubject is the subject placed in tokens issued at login.
	AdminSubject string `env:"ADMIN_SUBJECT" envDefault:"admin"`

	// RevocationStore selects the deny-list backend consulted after verification.
	RevocationStore RevocationStoreKind `env:"REVOCATION_STORE" envDefault:"none"`
}

// Sanitize trims whitespace-only values. Secrets are not otherwise modified.
func (a *AuthConfig) Sanitize() {
	a.AdminSubject = strings.TrimSpace(a.AdminSubject)
	if strings.TrimSpace(a.AdminPassword) == "" {
		a.AdminPassword = ""
	}
	if strings.TrimSpace(a.JWTSecret) == "" {
		a.JWTSecret = ""
	}
	if a.RevocationStore == "" {
		a.RevocationStore = RevocationStoreNone
	}
}

// Validate rejects missing, short or placeholder secrets and impossible lifetimes.
func (a *AuthConfig) Validate() error {
	if a.AdminPassword == "" {
		return configErr("ADMIN_PASSWORD", "is required")
	}
	if IsPlaceholder(a.AdminPassword) {
		return configErr("ADMIN_PASSWORD", "is a placeholder value and must be changed")
	}
	if a.JWTSecret == "" {
		return configErr("JWT_SECRET", "is required")
	}
	if IsPlaceholder(a.JWTSecret) {
		return configErr("JWT_SECRET", "is a placeholder value and must be changed")
	}
	if len(a.JWTSecret) < MinSecretBytes {
		return configErr("JWT_SECRET", fmt.Sprintf("must be at least %d bytes", MinSecretBytes))
	}
	if a.TokenTTL < time.Second {
		return configErr("TOKEN_TTL", "must be at least 1s")
	}
	if a.AdminSubject == "" {
		return configErr("ADMIN_SUBJECT", "is required")
	}
	return nil
}

// knownPlaceholders are shipped defaults and obvious stand-ins that must never reach production.
var knownPlaceholders = map[string]bool{
	"karmik1996":                          true,
	"default-secret-change-in-production": true,
	"password":                            true,
	"secret":                              true,
	"admin":                               true,
}

var placeholderFragments = []string{"change-in-production", "changeme", "change-me"}

// IsPlaceholder reports whether v is a known default or an obvious stand-in value.
func IsPlaceholder(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	if knownPlaceholders[lower] {
		return true
	}
	for _, frag := range placeholderFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
