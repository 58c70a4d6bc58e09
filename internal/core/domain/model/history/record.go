package history

import (
	"errors"
	"maps"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
)

// Record is one immutable entry of an order's audit trail.
//
// FromStatus is order.Unknown for the entry written when the order was created.
// ChangedBy is nil when the system performed the change.
type Record struct {
	id         kernel.UUID
	orderID    kernel.UUID
	fromStatus order.Status
	toStatus   order.Status
	changedBy  *kernel.UUID
	notes      string
	metadata   map[string]any
	createdAt  time.Time
}

// NewRecord describes a transition of orderID from -> to.
//
// Parameters:
//   - id: record identifier; a new one is generated when zero
//   - orderID: the order the record belongs to, required
//   - from: previous status, order.Unknown for the creation record
//   - to: the status the order moved to, must be valid
//   - changedBy: acting principal, nil for the system
//   - notes: optional free text
//   - metadata: optional key-value context, copied
//   - createdAt: set to now when zero
//
// Returns:
//   - *Record: the record
//   - error: joined validation errors
func NewRecord(
	id, orderID kernel.UUID,
	from, to order.Status,
	changedBy *kernel.UUID,
	notes string,
	metadata map[string]any,
	createdAt time.Time,
) (*Record, error) {
	var problems []error
	if err := orderID.Validate(); err != nil {
		problems = append(problems, errs.NewValueIsRequiredErrorWithCause("orderID", err))
	}
	if err := to.Validate(); err != nil {
		problems = append(problems, err)
	}
	if from != order.Unknown {
		if err := from.Validate(); err != nil {
			problems = append(problems, err)
		}
	}
	if changedBy != nil {
		if err := changedBy.Validate(); err != nil {
			problems = append(problems, errs.NewValueIsInvalidErrorWithCause("changedBy", err))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}

	if id.IsZero() {
		id = kernel.NewUUID()
	}
	if createdAt.IsZero() {
		createdAt = kernel.SystemClock()
	}

	r := &Record{
		id:         id,
		orderID:    orderID,
		fromStatus: from,
		toStatus:   to,
		notes:      notes,
		metadata:   maps.Clone(metadata),
		createdAt:  createdAt,
	}
	if changedBy != nil {
		by := *changedBy
		r.changedBy = &by
	}
	return r, nil
}

func (r *Record) ID() kernel.UUID {
	return r.id
}

func (r *Record) OrderID() kernel.UUID {
	return r.orderID
}

func (r *Record) FromStatus() order.Status {
	return r.fromStatus
}

func (r *Record) ToStatus() order.Status {
	return r.toStatus
}

// IsCreation reports whether the record marks the order's creation.
func (r *Record) IsCreation() bool {
	return r.fromStatus == order.Unknown
}

// ChangedBy returns the acting principal or nil for the system.
func (r *Record) ChangedBy() *kernel.UUID {
	if r.changedBy == nil {
		return nil
	}
	by := *r.changedBy
	return &by
}

func (r *Record) Notes() string {
	return r.notes
}

// Metadata returns a copy of the record's key-value context.
func (r *Record) Metadata() map[string]any {
	return maps.Clone(r.metadata)
}

func (r *Record) CreatedAt() time.Time {
	return r.createdAt
}
