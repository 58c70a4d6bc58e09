package queries

import (
	"errors"
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetStatusHistoryQueryIsNotConstructed = errors.New(
		"GetStatusHistoryQuery must be created via NewGetStatusHistoryQuery constructor",
	)
)

// GetStatusHistoryQuery reads an order's current status and its full audit trail.
//
// Example:
//
//	query, err := NewGetStatusHistoryQuery(orderID, principal)
//	if err != nil {
//	    return err
//	}
//	resp, err := handler.Handle(ctx, query)
//	for _, entry := range resp.History {
//	    fmt.Printf("%s -> %s at %s\n", entry.FromStatus, entry.ToStatus, entry.CreatedAt)
//	}
type GetStatusHistoryQuery struct {
	orderID kernel.UUID
	actor   actor.Actor

	guard guard.ConstructorGuard
}

// NewGetStatusHistoryQuery validates the order identifier and builds the query.
func NewGetStatusHistoryQuery(orderID kernel.UUID, principal actor.Actor) (GetStatusHistoryQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetStatusHistoryQuery{}, err
	}
	return GetStatusHistoryQuery{orderID: orderID, actor: principal, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetStatusHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetStatusHistoryQueryIsNotConstructed)
}

func (q GetStatusHistoryQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetStatusHistoryQuery) Actor() actor.Actor {
	return q.actor
}

// HistoryEntry is one audit record. FromStatus is order.Unknown for the creation entry
// and ChangedBy is nil for system changes.
type HistoryEntry struct {
	ID         kernel.UUID
	FromStatus order.Status
	ToStatus   order.Status
	ChangedBy  *kernel.UUID
	Notes      string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// GetStatusHistoryQueryResponse lists the audit trail newest first.
type GetStatusHistoryQueryResponse struct {
	OrderID              kernel.UUID
	CurrentStatus        order.Status
	CurrentStatusDisplay string
	History              []HistoryEntry
}
