package token

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// Verifier checks tokens signed with a fixed secret. It is immutable and safe for concurrent use.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier. The secret is copied.
func NewVerifier(secret []byte) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &Verifier{secret: append([]byte(nil), secret...)}, nil
}

// Verify validates tok at now using the Verifier's secret.
func (v *Verifier) Verify(tok string, now time.Time) (Claims, error) {
	return Verify(tok, v.secret, now)
}

// Verify validates tok and returns its claims. Checks run in a fixed order and
// stop at the first failure: shape, signature, payload, expiry. The payload is
// never decoded before the signature is proven.
func Verify(tok string, secret []byte, now time.Time) (Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Claims{}, ErrMalformedToken
	}

	expected, err := Sign([]byte(parts[0]+"."+parts[1]), secret)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	// Compare the encoded forms: decoding first would accept non-canonical trailing bits.
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return Claims{}, ErrInvalidSignature
	}

	payload, err := Decode(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	claims, err := parseClaims(payload)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if claims.ExpiredAt(now) {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}
