package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetStatusSummaryQueryIsNotConstructed = errors.New(
		"GetStatusSummaryQuery must be created via NewGetStatusSummaryQuery constructor",
	)
)

// GetStatusSummaryQuery counts orders per status. It is an internal report and
// carries no actor.
type GetStatusSummaryQuery struct {
	guard guard.ConstructorGuard
}

func NewGetStatusSummaryQuery() GetStatusSummaryQuery {
	return GetStatusSummaryQuery{guard: guard.NewConstructorGuard()}
}

func (q GetStatusSummaryQuery) Validate() error {
	return q.guard.Validate(ErrGetStatusSummaryQueryIsNotConstructed)
}

// StatusCount is the number of orders currently in Status.
type StatusCount struct {
	Status  order.Status
	Display string
	Count   int64
}

// GetStatusSummaryQueryResponse lists every registry status in declaration order,
// including those without orders.
type GetStatusSummaryQueryResponse struct {
	Counts []StatusCount
	Total  int64
	// Open counts orders not yet in a terminal status.
	Open int64
}
