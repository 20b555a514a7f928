package access

// Package access decides whether verified claims may reach a resource class.
// It knows nothing about signatures; callers pass only claims returned by token verification.

import (
	"strings"

	domainauth "github.com/target/quizgate/internal/domain/auth"
	"github.com/target/quizgate/internal/domain/token"
)

// ResourceClass is a coarse category of protected functionality.
type ResourceClass string

const (
	ResourceGeneral ResourceClass = "general"
	ResourceAdmin   ResourceClass = "admin"
)

// ReasonAdminRequired is the denial reason for non-admin access to admin resources.
const ReasonAdminRequired = "admin access required"

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the permitting decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a refusing decision with reason.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize is a pure function of the claims' role and the requested class.
func Authorize(claims token.Claims, class ResourceClass) Decision {
	if class == ResourceAdmin && claims.Role != domainauth.RoleAdmin {
		return Deny(ReasonAdminRequired)
	}
	return Allow()
}

// ClassForPath maps a request path to its resource class. Any path with an
// "admin" segment is an admin resource.
func ClassForPath(path string) ResourceClass {
	for _, seg := range strings.Split(path, "/") {
		if strings.EqualFold(seg, "admin") {
			return ResourceAdmin
		}
	}
	return ResourceGeneral
}

// ParseResourceClass converts a raw value into a ResourceClass, defaulting to general.
func ParseResourceClass(s string) ResourceClass {
	if strings.EqualFold(strings.TrimSpace(s), string(ResourceAdmin)) {
		return ResourceAdmin
	}
	return ResourceGeneral
}
