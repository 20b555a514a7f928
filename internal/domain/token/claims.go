package token

// Package token issues and verifies HS256-signed session tokens.
// Tokens are three base64url segments: header, claims, and signature.

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/target/quizgate/internal/domain/auth"
)

// Header is the fixed token header.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// DefaultHeader is the only header this package issues.
var DefaultHeader = Header{Alg: "HS256", Typ: "JWT"}

// Claims is the payload carried inside a token.
// Timestamps are whole seconds since the Unix epoch.
type Claims struct {
	Subject   string          `json:"sub"`
	Role      domainauth.Role `json:"role"`
	IssuedAt  int64           `json:"iat"`
	ExpiresAt int64           `json:"exp"`
	ID        string          `json:"jti,omitempty"`
}

// IssuedAtTime returns IssuedAt as a time.Time.
func (c Claims) IssuedAtTime() time.Time { return time.Unix(c.IssuedAt, 0).UTC() }

// ExpiresAtTime returns ExpiresAt as a time.Time.
func (c Claims) ExpiresAtTime() time.Time { return time.Unix(c.ExpiresAt, 0).UTC() }

// ExpiredAt reports whether the claims are no longer valid at now.
// A token is expired from the exp second onwards.
func (c Claims) ExpiredAt(now time.Time) bool {
	return now.Unix() >= c.ExpiresAt
}

// RemainingAt returns how long the claims stay valid after now, never negative.
func (c Claims) RemainingAt(now time.Time) time.Duration {
	d := c.ExpiresAtTime().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// wireClaims mirrors Claims with pointer fields so missing values can be told apart from zero.
type wireClaims struct {
	Subject   *string `json:"sub"`
	Role      *string `json:"role"`
	IssuedAt  *int64  `json:"iat"`
	ExpiresAt *int64  `json:"exp"`
	ID        string  `json:"jti"`
}

func parseClaims(payload []byte) (Claims, error) {
	var w wireClaims
	if err := json.Unmarshal(payload, &w); err != nil {
		return Claims{}, fmt.Errorf("unmarshal claims: %w", err)
	}
	if w.Subject == nil || *w.Subject == "" {
		return Claims{}, errors.New("sub is required")
	}
	if w.IssuedAt == nil || w.ExpiresAt == nil {
		return Claims{}, errors.New("iat and exp are required")
	}
	if *w.ExpiresAt <= *w.IssuedAt {
		return Claims{}, errors.New("exp must be after iat")
	}

	// Tokens without a role are treated as regular users.
	role := domainauth.RoleUser
	if w.Role != nil {
		role = domainauth.Role(*w.Role)
		if !role.Valid() {
			return Claims{}, fmt.Errorf("unknown role %q", *w.Role)
		}
	}

	return Claims{
		Subject:   *w.Subject,
		Role:      role,
		IssuedAt:  *w.IssuedAt,
		ExpiresAt: *w.ExpiresAt,
		ID:        w.ID,
	}, nil
}
