package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecode is returned when a segment is not valid base64url.
var ErrDecode = errors.New("invalid base64url segment")

// Encode returns the unpadded base64url form of b.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode. Trailing padding is tolerated.
func Decode(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return b, nil
}

// Sign computes the base64url-encoded HMAC-SHA256 of message keyed by secret.
// The same inputs always produce the same output.
func Sign(message, secret []byte) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(string(message), secret)
	if err != nil {
		return "", fmt.Errorf("hmac sign: %w", err)
	}
	return Encode(sig), nil
}
