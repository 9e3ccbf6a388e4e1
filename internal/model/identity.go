package model

import "strings"

// UserID uniquely identifies an authenticated user in the backend
type UserID string

// Identity is the signed-in user as seen by the views
type Identity struct {
	ID         UserID
	Email      string
	Role       string
	Privileged bool // derived from PrivilegePolicy, never stored
}

// Defaults for the privilege policy
const (
	DefaultOperatorEmail = "admin@quijoterun.com"
	DefaultAdminRole     = "admin"
)

// PrivilegePolicy decides which identities may use the operator console.
// Both fields come from configuration.
type PrivilegePolicy struct {
	OperatorEmail string
	AdminRole     string
}

// DefaultPrivilegePolicy returns the policy used when nothing is configured
func DefaultPrivilegePolicy() PrivilegePolicy {
	return PrivilegePolicy{
		OperatorEmail: DefaultOperatorEmail,
		AdminRole:     DefaultAdminRole,
	}
}

// IsPrivileged reports whether an identity with the given email and role claim is an operator
func (p PrivilegePolicy) IsPrivileged(email, role string) bool {
	if p.OperatorEmail != "" && strings.EqualFold(strings.TrimSpace(email), p.OperatorEmail) {
		return true
	}
	return p.AdminRole != "" && role == p.AdminRole
}

// NewIdentity builds an Identity and derives its privilege flag
func NewIdentity(id UserID, email, role string, policy PrivilegePolicy) *Identity {
	return &Identity{
		ID:         id,
		Email:      email,
		Role:       role,
		Privileged: policy.IsPrivileged(email, role),
	}
}
