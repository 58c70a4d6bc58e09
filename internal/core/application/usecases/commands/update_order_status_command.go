package commands

import (
	"errors"
	"maps"
	"strings"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxNotesLength = 2000

var (
	ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
		"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
	)
)

// UpdateOrderStatusCommand asks to move an order to a new status on behalf of an actor.
//
// Example:
//
//	cmd, err := NewUpdateOrderStatusCommand(orderID, order.Done25, principal, "design draft ready", nil)
//	if err != nil {
//	    return fmt.Errorf("invalid status update: %w", err)
//	}
//	outcome, err := handler.Handle(ctx, cmd)
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	newStatus order.Status
	actor     actor.Actor
	notes     string
	metadata  map[string]any

	guard guard.ConstructorGuard
}

// NewUpdateOrderStatusCommand validates and builds the command.
// Notes are trimmed and limited to 2000 characters; metadata keys must not be blank.
func NewUpdateOrderStatusCommand(
	orderID kernel.UUID,
	newStatus order.Status,
	principal actor.Actor,
	notes string,
	metadata map[string]any,
) (UpdateOrderStatusCommand, error) {
	cmd := UpdateOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setNewStatus(newStatus),
		cmd.setActor(principal),
		cmd.setNotes(notes),
		cmd.setMetadata(metadata),
	); err != nil {
		return UpdateOrderStatusCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

func (c UpdateOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c UpdateOrderStatusCommand) NewStatus() order.Status {
	return c.newStatus
}

func (c UpdateOrderStatusCommand) Actor() actor.Actor {
	return c.actor
}

func (c UpdateOrderStatusCommand) Notes() string {
	return c.notes
}

// Metadata returns a copy of the contextual key-value data for the audit record.
func (c UpdateOrderStatusCommand) Metadata() map[string]any {
	return maps.Clone(c.metadata)
}

func (c *UpdateOrderStatusCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *UpdateOrderStatusCommand) setNewStatus(s order.Status) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.newStatus = s
	return nil
}

func (c *UpdateOrderStatusCommand) setActor(a actor.Actor) error {
	if err := errors.Join(a.ID.Validate(), a.Role.Validate()); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("actor", err)
	}
	c.actor = a
	return nil
}

func (c *UpdateOrderStatusCommand) setNotes(notes string) error {
	notes = strings.TrimSpace(notes)
	if err := validation.Validate(notes, validation.RuneLength(0, maxNotesLength)); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("notes", err)
	}
	c.notes = notes
	return nil
}

func (c *UpdateOrderStatusCommand) setMetadata(metadata map[string]any) error {
	for key := range metadata {
		if strings.TrimSpace(key) == "" {
			return errs.NewValueIsInvalidErrorWithCause("metadata", errors.New("keys must not be blank"))
		}
	}
	c.metadata = maps.Clone(metadata)
	return nil
}
