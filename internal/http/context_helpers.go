package httpx

import (
	"context"

	"github.com/target/quizgate/internal/domain/token"
)

// claimsKey is an unexported context key type to avoid collisions across packages.
type claimsKey struct{}

// SetClaimsInContext returns a child context that carries verified claims.
func SetClaimsInContext(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaimsFromContext returns the verified claims from context and a boolean indicating presence.
func GetClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(token.Claims)
	return claims, ok
}
