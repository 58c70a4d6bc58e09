package commands

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// CreatedOrder is the result of CreateOrderCommandHandler.
type CreatedOrder struct {
	OrderID   kernel.UUID
	Status    order.Status
	CreatedAt time.Time
}

// CreateOrderCommandHandler creates orders in the pending status and opens their audit
// trail with a creation record, both in one transaction.
//
// The creator must be allowed to see the order it creates: clients create their own
// orders, department heads orders for their department, administrators any order.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, gate, kernel.SystemClock)
//	created, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory WorkflowUoWFactory
	gate       ViewAuthorizer
	clock      kernel.Clock
}

// NewCreateOrderCommandHandler creates a handler for order creation.
func NewCreateOrderCommandHandler(uowFactory WorkflowUoWFactory, gate ViewAuthorizer, clock kernel.Clock) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		gate:       gate,
		clock:      clock,
	}
}

// Handle processes the order creation command.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreatedOrder, error) {
	if err := cmd.Validate(); err != nil {
		return CreatedOrder{}, err
	}

	createdAt := h.clock.Now()
	aggregate, err := order.NewOrder(cmd.OrderID(), cmd.ClientID(), cmd.DepartmentID(), cmd.Title(), createdAt)
	if err != nil {
		return CreatedOrder{}, err
	}

	creator := cmd.Creator()
	if err = h.gate.AuthorizeView(creator, aggregate.Ownership()); err != nil {
		return CreatedOrder{}, err
	}

	record, err := history.NewRecord(kernel.UUID{}, aggregate.ID(), order.Unknown, aggregate.Status(),
		&creator.ID, "order created", nil, createdAt)
	if err != nil {
		return CreatedOrder{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return CreatedOrder{}, asStorageError("begin order creation", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, aggregate); err != nil {
		return CreatedOrder{}, asStorageError("add order", err)
	}

	if _, err = uow.StatusHistoryRepository().Append(ctx, record); err != nil {
		return CreatedOrder{}, asStorageError("append creation record", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return CreatedOrder{}, asStorageError("commit order creation", err)
	}

	return CreatedOrder{
		OrderID:   aggregate.ID(),
		Status:    aggregate.Status(),
		CreatedAt: createdAt,
	}, nil
}
