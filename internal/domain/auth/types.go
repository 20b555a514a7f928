package auth

// Package auth contains domain-level role types shared by tokens and the access gate.
// It is pure and free of framework/adapter concerns.

import (
	"fmt"
	"strings"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence in token claims.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// roleLevels orders roles: Guest < User < Admin.
var roleLevels = map[Role]int{
	RoleGuest: 0,
	RoleUser:  1,
	RoleAdmin: 2,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether r meets the required role in the hierarchy.
// Unknown roles never satisfy a requirement.
func (r Role) AtLeast(required Role) bool {
	have, ok := roleLevels[r]
	if !ok {
		return false
	}
	want, ok := roleLevels[required]
	if !ok {
		return false
	}
	return have >= want
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q (valid options: admin, user, guest)", s)
	}
	return r, nil
}
