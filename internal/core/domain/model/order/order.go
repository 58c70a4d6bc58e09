package order

import (
	"errors"
	"strings"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")
)

// TransitionPolicy decides whether an order may move from current to proposed.
// The domain services TransitionValidator is the production implementation.
type TransitionPolicy interface {
	Validate(current, proposed Status) error
}

// OwnershipContext is the precomputed ownership data the authorization gate needs.
// DepartmentID is the department of the service the order was placed for.
type OwnershipContext struct {
	OrderID      kernel.UUID
	DepartmentID kernel.UUID
	ClientID     kernel.UUID
}

// Order is the aggregate whose status the workflow engine governs.
//
// Order follows these invariants:
//   - id, clientID and departmentID are valid identifiers
//   - status is always a member of the closed Status vocabulary
//   - status only changes through ChangeStatus, which consults a TransitionPolicy
//   - version is the optimistic concurrency token last read from storage
type Order struct {
	id           kernel.UUID
	clientID     kernel.UUID
	departmentID kernel.UUID
	title        string

	status          Status
	statusUpdatedAt time.Time
	// statusUpdatedBy is nil when the system made the last change
	statusUpdatedBy *kernel.UUID

	version   int64
	createdAt time.Time

	isConstructed bool
}

// NewOrder creates an order in the Pending status with version 1.
//
// Parameters:
//   - id: order identifier
//   - clientID: the client who placed the order and receives its notifications
//   - departmentID: department owning the ordered service
//   - title: short human-readable description, required
//   - createdAt: creation instant, also used as the initial status timestamp
//
// Returns:
//   - *Order: the created order if all validations pass
//   - error: every validation failure joined together
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), clientID, departmentID, "Landing page redesign", clock.Now())
func NewOrder(id, clientID, departmentID kernel.UUID, title string, createdAt time.Time) (*Order, error) {
	o := &Order{
		status:          Pending,
		statusUpdatedAt: createdAt,
		version:         1,
		createdAt:       createdAt,
		isConstructed:   true,
	}

	if err := errors.Join(
		o.setIdentity(id, clientID, departmentID),
		o.setTitle(title),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state. The status must be valid and the
// version positive; anything else means the stored row is corrupt.
func RestoreOrder(
	id, clientID, departmentID kernel.UUID,
	title string,
	status Status,
	statusUpdatedAt time.Time,
	statusUpdatedBy *kernel.UUID,
	version int64,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		statusUpdatedAt: statusUpdatedAt,
		version:         version,
		createdAt:       createdAt,
		isConstructed:   true,
	}

	var versionErr error
	if version < 1 {
		versionErr = errs.NewValueIsOutOfRangeError("version", version, 1, "unbounded")
	}

	if err := errors.Join(
		o.setIdentity(id, clientID, departmentID),
		o.setTitle(title),
		status.Validate(),
		versionErr,
	); err != nil {
		return nil, err
	}

	o.status = status
	if statusUpdatedBy != nil {
		by := *statusUpdatedBy
		o.statusUpdatedBy = &by
	}
	return o, nil
}

// Validate ensures the Order was created through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) ClientID() kernel.UUID {
	return o.clientID
}

func (o *Order) DepartmentID() kernel.UUID {
	return o.departmentID
}

func (o *Order) Title() string {
	return o.title
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) StatusUpdatedAt() time.Time {
	return o.statusUpdatedAt
}

// StatusUpdatedBy returns the actor behind the last status change, nil for the system.
func (o *Order) StatusUpdatedBy() *kernel.UUID {
	if o.statusUpdatedBy == nil {
		return nil
	}
	by := *o.statusUpdatedBy
	return &by
}

// Version returns the concurrency token read from storage. Repositories update the row
// only while the stored version still equals this value.
func (o *Order) Version() int64 {
	return o.version
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// Ownership returns the data the authorization gate checks against the actor.
func (o *Order) Ownership() OwnershipContext {
	return OwnershipContext{
		OrderID:      o.id,
		DepartmentID: o.departmentID,
		ClientID:     o.clientID,
	}
}

// ChangeStatus moves the order to next if policy allows it.
//
// Parameters:
//   - policy: decides legality; its error is returned unchanged
//   - next: the proposed status
//   - actorID: who requested the change, nil for system-initiated transitions
//   - at: the instant recorded as statusUpdatedAt
//
// Returns:
//   - the status before the change
//   - the policy error, in which case the order is left untouched
func (o *Order) ChangeStatus(policy TransitionPolicy, next Status, actorID *kernel.UUID, at time.Time) (Status, error) {
	if err := policy.Validate(o.status, next); err != nil {
		return o.status, err
	}

	previous := o.status
	o.status = next
	o.statusUpdatedAt = at
	o.statusUpdatedBy = nil
	if actorID != nil {
		by := *actorID
		o.statusUpdatedBy = &by
	}
	return previous, nil
}

func (o *Order) setIdentity(id, clientID, departmentID kernel.UUID) error {
	var problems []error
	if err := id.Validate(); err != nil {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause("id", err))
	}
	if err := clientID.Validate(); err != nil {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause("clientID", err))
	}
	if err := departmentID.Validate(); err != nil {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause("departmentID", err))
	}
	if len(problems) > 0 {
		return errors.Join(problems...)
	}

	o.id = id
	o.clientID = clientID
	o.departmentID = departmentID
	return nil
}

func (o *Order) setTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errs.NewValueIsRequiredError("title")
	}
	o.title = title
	return nil
}
