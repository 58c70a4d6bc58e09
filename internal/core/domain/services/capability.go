package services

import (
	"orderflow/internal/core/domain/model/actor"
)

// Capability names an action class a role may perform on orders.
type Capability string

const (
	// CapabilityManageAll allows changing and reading any order.
	CapabilityManageAll Capability = "orders.manage.all"
	// CapabilityManageDepartment allows changing and reading orders of the managed department.
	CapabilityManageDepartment Capability = "orders.manage.department"
	// CapabilityViewOwn allows reading the actor's own orders.
	CapabilityViewOwn Capability = "orders.view.own"
)

// CapabilitySet is the set of capabilities granted to a role.
type CapabilitySet map[Capability]bool

// Has reports whether c is granted.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// CapabilityResolver maps a role to its granted capabilities.
type CapabilityResolver interface {
	Capabilities(role actor.Role) CapabilitySet
}
