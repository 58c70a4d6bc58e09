package services

import (
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/order"
)

var (
	// ErrForbidden is returned when the actor's role grants no access to the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrScopeViolation is returned when a department-scoped actor targets an order
	// that belongs to another department.
	ErrScopeViolation = errors.New("order is outside the actor's department")
)

// AuthorizationGate decides whether an actor may act on an order.
//
// Decisions depend only on the actor's capabilities and the order's precomputed
// OwnershipContext, so the gate never touches storage. Transition checks run before
// the TransitionValidator: an unauthorized actor is refused even when the requested
// transition is legal.
type AuthorizationGate struct {
	resolver CapabilityResolver
}

// NewAuthorizationGate creates a gate backed by resolver.
func NewAuthorizationGate(resolver CapabilityResolver) *AuthorizationGate {
	return &AuthorizationGate{resolver: resolver}
}

// AuthorizeTransition checks whether a may move the order to proposed.
//
// Rules:
//   - CapabilityManageAll: always allowed
//   - CapabilityManageDepartment: allowed when the order's department is the one a manages,
//     ErrScopeViolation otherwise
//   - anything else: ErrForbidden
//
// Backward transitions are authorized exactly like forward ones.
func (g *AuthorizationGate) AuthorizeTransition(a actor.Actor, ownership order.OwnershipContext, proposed order.Status) error {
	caps := g.resolver.Capabilities(a.Role)

	switch {
	case caps.Has(CapabilityManageAll):
		return nil
	case caps.Has(CapabilityManageDepartment):
		if a.Manages(ownership.DepartmentID) {
			return nil
		}
		return fmt.Errorf("%w: %s cannot move order %s to %s", ErrScopeViolation, a.Role, ownership.OrderID, proposed)
	default:
		return fmt.Errorf("%w: %s cannot change order status", ErrForbidden, a.Role)
	}
}

// AuthorizeView checks whether a may read the order's workflow state and history.
// Managers follow the AuthorizeTransition rules; holders of CapabilityViewOwn may read
// orders they placed.
func (g *AuthorizationGate) AuthorizeView(a actor.Actor, ownership order.OwnershipContext) error {
	caps := g.resolver.Capabilities(a.Role)

	if caps.Has(CapabilityManageAll) {
		return nil
	}
	if caps.Has(CapabilityManageDepartment) && a.Manages(ownership.DepartmentID) {
		return nil
	}
	if caps.Has(CapabilityViewOwn) && a.ID.IsEqual(ownership.ClientID) {
		return nil
	}
	if caps.Has(CapabilityManageDepartment) {
		return fmt.Errorf("%w: %s cannot view order %s", ErrScopeViolation, a.Role, ownership.OrderID)
	}
	return fmt.Errorf("%w: %s cannot view order %s", ErrForbidden, a.Role, ownership.OrderID)
}
