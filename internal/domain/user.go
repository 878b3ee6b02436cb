// Package domain contains core business types and interfaces.
//
// This file defines the account roles a subscription is scoped to. Accounts
// themselves are owned by the authentication provider.
package domain

import "fmt"

// Role is the account role a subscription belongs to.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRecruiter Role = "recruiter"
	RoleJobSeeker Role = "job_seeker"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleJobSeeker:
		return true
	}
	return false
}

// ParseRole converts a stored account role into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
