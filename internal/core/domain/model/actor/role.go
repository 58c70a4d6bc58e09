package actor

import (
	"errors"
	"fmt"
)

// ErrUnknownRole is returned for role tokens outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Role is the kind of principal acting on an order.
type Role int

const (
	// RoleUnknown is the zero value and never valid.
	RoleUnknown Role = iota
	RoleAdmin
	RoleDepartmentHead
	RoleEmployee
	RoleClient
)

func getRoleTokens() map[Role]string {
	//nolint:exhaustive // RoleUnknown has no token
	return map[Role]string{
		RoleAdmin:          "admin",
		RoleDepartmentHead: "department_head",
		RoleEmployee:       "employee",
		RoleClient:         "client",
	}
}

// Roles returns every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDepartmentHead, RoleEmployee, RoleClient}
}

// ParseRole converts a token such as "department_head" into a Role.
func ParseRole(token string) (Role, error) {
	for r, t := range getRoleTokens() {
		if t == token {
			return r, nil
		}
	}
	return RoleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, token)
}

func (r Role) Validate() error {
	if _, ok := getRoleTokens()[r]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}
	return nil
}

func (r Role) String() string {
	if t, ok := getRoleTokens()[r]; ok {
		return t
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. YAML policies and JWT
// claims decode through it.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
