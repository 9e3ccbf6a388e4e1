package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrivilegePolicyIsPrivileged(t *testing.T) {
	policy := DefaultPrivilegePolicy()

	tests := []struct {
		name     string
		email    string
		role     string
		expected bool
	}{
		{name: "operator address", email: "admin@quijoterun.com", expected: true},
		{name: "operator address different case", email: "Admin@QuijoteRun.com", expected: true},
		{name: "admin role claim", email: "coach@example.com", role: "admin", expected: true},
		{name: "runner", email: "runner1@quijoterun.com", expected: false},
		{name: "runner with other role", email: "runner1@quijoterun.com", role: "runner", expected: false},
		{name: "role is case sensitive", email: "runner1@quijoterun.com", role: "Admin", expected: false},
		{name: "bare username is not the address", email: "admin", expected: false},
		{name: "empty", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.IsPrivileged(tt.email, tt.role))
		})
	}
}

func TestPrivilegePolicyEmptyFieldsNeverMatch(t *testing.T) {
	policy := PrivilegePolicy{}

	assert.False(t, policy.IsPrivileged("", ""))
	assert.False(t, policy.IsPrivileged("admin@quijoterun.com", "admin"))
}

func TestNewIdentityDerivesPrivilege(t *testing.T) {
	policy := DefaultPrivilegePolicy()

	admin := NewIdentity("u-1", "admin@quijoterun.com", "", policy)
	assert.True(t, admin.Privileged)

	runner := NewIdentity("u-2", "runner1@quijoterun.com", "", policy)
	assert.False(t, runner.Privileged)
	assert.Equal(t, UserID("u-2"), runner.ID)
}
