package commands

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// TransitionOutcome describes a committed status change.
type TransitionOutcome struct {
	OrderID            kernel.UUID
	PreviousStatus     order.Status
	NewStatus          order.Status
	NewStatusDisplay   string
	Timestamp          time.Time
	ProgressPercentage int
	IsTerminal         bool
	UpdatedBy          kernel.UUID
}

// UpdateOrderStatusHandler is the contract the transport layer and decorators rely on.
type UpdateOrderStatusHandler interface {
	Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (TransitionOutcome, error)
}

// UpdateOrderStatusCommandHandlerOption configures optional collaborators.
type UpdateOrderStatusCommandHandlerOption func(*UpdateOrderStatusCommandHandler)

// WithClock overrides the time source used for statusUpdatedAt and the audit timestamp.
func WithClock(clock kernel.Clock) UpdateOrderStatusCommandHandlerOption {
	return func(h *UpdateOrderStatusCommandHandler) {
		h.clock = clock
	}
}

// WithLogger sets the logger used for best-effort notification failures.
func WithLogger(logger *slog.Logger) UpdateOrderStatusCommandHandlerOption {
	return func(h *UpdateOrderStatusCommandHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// UpdateOrderStatusCommandHandler is the only code path that changes an order's status.
//
// A transition runs in this order:
//  1. load the order inside a unit of work
//  2. authorize the actor (always before any legality check)
//  3. validate and apply the change on the aggregate
//  4. update the order row with a version compare-and-set and append the audit record,
//     then commit both together
//  5. publish StatusChanged, and PaymentReceived for payment_done, after the commit
//
// Errors from steps 1 to 4 are returned and leave storage untouched. Errors in step 5
// are logged only: the transition is already final.
//
// Example:
//
//	handler := NewUpdateOrderStatusCommandHandler(uowFactory, registry, validator, gate, publisher, users)
//	outcome, err := handler.Handle(ctx, cmd)
//	var illegal *order.IllegalTransitionError
//	switch {
//	case errors.As(err, &illegal):
//	    // tell the operator which statuses are allowed
//	case errors.Is(err, errs.ErrConcurrentModification):
//	    // re-read and retry
//	}
type UpdateOrderStatusCommandHandler struct {
	uowFactory WorkflowUoWFactory
	registry   *order.Registry
	policy     order.TransitionPolicy
	gate       TransitionAuthorizer
	publisher  ports.EventPublisher
	users      ports.UserDirectory
	clock      kernel.Clock
	logger     *slog.Logger
}

// NewUpdateOrderStatusCommandHandler creates the transition handler.
func NewUpdateOrderStatusCommandHandler(
	uowFactory WorkflowUoWFactory,
	registry *order.Registry,
	policy order.TransitionPolicy,
	gate TransitionAuthorizer,
	publisher ports.EventPublisher,
	users ports.UserDirectory,
	opts ...UpdateOrderStatusCommandHandlerOption,
) *UpdateOrderStatusCommandHandler {
	h := &UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		registry:   registry,
		policy:     policy,
		gate:       gate,
		publisher:  publisher,
		users:      users,
		clock:      kernel.SystemClock,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "update_order_status")
	return h
}

// Handle executes the transition described by cmd.
func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (TransitionOutcome, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionOutcome{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return TransitionOutcome{}, asStorageError("begin transition", err)
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	aggregate, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return TransitionOutcome{}, asStorageError("load order", err)
	}

	principal := cmd.Actor()
	if err = h.gate.AuthorizeTransition(principal, aggregate.Ownership(), cmd.NewStatus()); err != nil {
		return TransitionOutcome{}, err
	}

	at := h.clock.Now()
	previous, err := aggregate.ChangeStatus(h.policy, cmd.NewStatus(), &principal.ID, at)
	if err != nil {
		return TransitionOutcome{}, err
	}

	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return TransitionOutcome{}, asStorageError("update order status", err)
	}

	record, err := history.NewRecord(
		kernel.UUID{},
		aggregate.ID(),
		previous,
		aggregate.Status(),
		&principal.ID,
		cmd.Notes(),
		cmd.Metadata(),
		at,
	)
	if err != nil {
		return TransitionOutcome{}, err
	}
	if _, err = uow.StatusHistoryRepository().Append(ctx, record); err != nil {
		return TransitionOutcome{}, asStorageError("append status history", err)
	}

	if err = uow.Commit(ctx); err != nil {
		return TransitionOutcome{}, asStorageError("commit transition", err)
	}

	h.publish(context.WithoutCancel(ctx), aggregate, previous, principal.ID, at)

	return TransitionOutcome{
		OrderID:            aggregate.ID(),
		PreviousStatus:     previous,
		NewStatus:          aggregate.Status(),
		NewStatusDisplay:   h.registry.DisplayOf(aggregate.Status()),
		Timestamp:          at,
		ProgressPercentage: h.registry.ProgressOf(aggregate.Status()),
		IsTerminal:         h.registry.IsTerminal(aggregate.Status()),
		UpdatedBy:          principal.ID,
	}, nil
}

func (h *UpdateOrderStatusCommandHandler) publish(
	ctx context.Context,
	aggregate *order.Order,
	previous order.Status,
	actorID kernel.UUID,
	at time.Time,
) {
	events := []event.Event{event.StatusChanged{
		OrderID:    aggregate.ID(),
		OrderTitle: aggregate.Title(),
		ClientID:   aggregate.ClientID(),
		From:       previous,
		To:         aggregate.Status(),
		ToDisplay:  h.registry.DisplayOf(aggregate.Status()),
		ChangedBy:  &actorID,
		OccurredAt: at,
	}}

	if aggregate.Status() == order.PaymentDone {
		admins, err := h.users.Administrators(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to resolve administrators for payment notification",
				"order_id", aggregate.ID().String(), "error", err)
		} else if len(admins) == 0 {
			h.logger.WarnContext(ctx, "no administrators to notify about payment",
				"order_id", aggregate.ID().String())
		} else {
			events = append(events, event.PaymentReceived{
				OrderID:    aggregate.ID(),
				OrderTitle: aggregate.Title(),
				Recipients: admins,
				OccurredAt: at,
			})
		}
	}

	if err := h.publisher.Publish(ctx, events...); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish status change",
			"order_id", aggregate.ID().String(),
			"status", aggregate.Status().String(),
			"error", err)
	}
}
