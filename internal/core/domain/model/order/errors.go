package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownStatus is returned when a status is outside the closed vocabulary.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrNoOpTransition is returned when the proposed status equals the current one.
	ErrNoOpTransition = errors.New("status is already set")

	// ErrIllegalTransition is returned when the proposed status is not reachable
	// from the current one. The concrete error is *IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// IllegalTransitionError carries the statuses that would have been accepted,
// so callers can tell the operator what to do instead.
type IllegalTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

// NewIllegalTransitionError builds an IllegalTransitionError. Allowed is copied.
func NewIllegalTransitionError(from, to Status, allowed []Status) *IllegalTransitionError {
	return &IllegalTransitionError{
		From:    from,
		To:      to,
		Allowed: append([]Status(nil), allowed...),
	}
}

func (e *IllegalTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s: %s is terminal, cannot move to %s", ErrIllegalTransition, e.From, e.To)
	}
	tokens := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		tokens = append(tokens, s.String())
	}
	return fmt.Sprintf("%s: %s -> %s (allowed: %s)", ErrIllegalTransition, e.From, e.To, strings.Join(tokens, ", "))
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}
