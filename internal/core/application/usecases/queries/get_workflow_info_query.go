package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrGetWorkflowInfoQueryIsNotConstructed = errors.New(
		"GetWorkflowInfoQuery must be created via NewGetWorkflowInfoQuery constructor",
	)
)

// GetWorkflowInfoQuery reads where an order stands in the workflow and where it can go next.
type GetWorkflowInfoQuery struct {
	orderID kernel.UUID
	actor   actor.Actor

	guard guard.ConstructorGuard
}

func NewGetWorkflowInfoQuery(orderID kernel.UUID, principal actor.Actor) (GetWorkflowInfoQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetWorkflowInfoQuery{}, err
	}
	return GetWorkflowInfoQuery{orderID: orderID, actor: principal, guard: guard.NewConstructorGuard()}, nil
}

func (q GetWorkflowInfoQuery) Validate() error {
	return q.guard.Validate(ErrGetWorkflowInfoQueryIsNotConstructed)
}

func (q GetWorkflowInfoQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetWorkflowInfoQuery) Actor() actor.Actor {
	return q.actor
}

// StatusOption is a status the order may move to, with its display name.
type StatusOption struct {
	Value   order.Status
	Display string
}

type GetWorkflowInfoQueryResponse struct {
	CurrentStatus        order.Status
	CurrentStatusDisplay string
	AllowedNext          []StatusOption
	ProgressPercentage   int
	IsTerminal           bool
	StatusColor          string
}
