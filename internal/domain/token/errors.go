package token

import "errors"

// Issuance errors.
var (
	ErrInvalidTTL    = errors.New("token ttl must be at least one second")
	ErrInvalidClaims = errors.New("token claims are invalid")
	ErrEmptySecret   = errors.New("signing secret is required")
)

// Verification errors, in the order Verify checks for them.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedPayload = errors.New("malformed token payload")
	ErrTokenExpired     = errors.New("token expired")
)

// Stage labels the verification step that rejected err. It is meant for
// logs and metrics only; clients must never see it.
func Stage(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "unknown"
	}
}

// IsVerificationError reports whether err came from one of the Verify stages.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrTokenExpired)
}
