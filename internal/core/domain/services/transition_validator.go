package services

import (
	"orderflow/internal/core/domain/model/order"
)

var _ order.TransitionPolicy = (*TransitionValidator)(nil)

// TransitionValidator checks a proposed status change against a Registry.
//
// It is pure: no I/O, no clock, no randomness. The same pair always yields the
// same result, so it is safe to call any number of times before applying a change.
//
// Example usage:
//
//	validator := services.NewTransitionValidator(order.DefaultRegistry())
//	err := validator.Validate(order.Closed, order.PaymentDone)
//	var illegal *order.IllegalTransitionError
//	if errors.As(err, &illegal) {
//	    // illegal.Allowed is empty: closed is terminal
//	}
type TransitionValidator struct {
	registry *order.Registry
}

// NewTransitionValidator creates a validator over registry.
func NewTransitionValidator(registry *order.Registry) *TransitionValidator {
	return &TransitionValidator{registry: registry}
}

// Validate decides whether current may move to proposed.
//
// Checks, in order:
//   - proposed equals current: order.ErrNoOpTransition
//   - current or proposed outside the registry: error wrapping order.ErrUnknownStatus
//   - proposed not in the allowed next set: *order.IllegalTransitionError carrying that set
func (v *TransitionValidator) Validate(current, proposed order.Status) error {
	if current == proposed {
		return order.ErrNoOpTransition
	}
	if _, err := v.registry.Describe(current); err != nil {
		return err
	}
	if _, err := v.registry.Describe(proposed); err != nil {
		return err
	}
	if !v.registry.IsAllowed(current, proposed) {
		return order.NewIllegalTransitionError(current, proposed, v.registry.AllowedNext(current))
	}
	return nil
}
