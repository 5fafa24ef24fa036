package domain

import dErrors "propverify/pkg/domain-errors"

// Role is the marketplace user type a verification applies to.
// Invariant: values persisted externally are limited to the constants below.
//
// Usage: construct via ParseRole at trust boundaries; direct casting bypasses
// validation and is only safe for values read back from our own stores.
type Role string

const (
	RoleAgent     Role = "agent"
	RoleDeveloper Role = "developer"
)

var validRoles = map[Role]bool{
	RoleAgent:     true,
	RoleDeveloper: true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unsupported role: "+s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string { return string(r) }
