package commands

import (
	"errors"
	"strings"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxTitleLength = 200

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

// CreateOrderCommand registers a new order in the pending status.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), clientID, departmentID, "Landing page", principal)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID      kernel.UUID
	clientID     kernel.UUID
	departmentID kernel.UUID
	title        string
	creator      actor.Actor

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new order.
// Identifiers must be valid and the title must hold 1 to 200 characters.
func NewCreateOrderCommand(
	orderID, clientID, departmentID kernel.UUID,
	title string,
	creator actor.Actor,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setIDs(orderID, clientID, departmentID),
		cmd.setTitle(title),
		cmd.setCreator(creator),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) ClientID() kernel.UUID {
	return c.clientID
}

func (c CreateOrderCommand) DepartmentID() kernel.UUID {
	return c.departmentID
}

func (c CreateOrderCommand) Title() string {
	return c.title
}

// Creator returns the principal registering the order.
func (c CreateOrderCommand) Creator() actor.Actor {
	return c.creator
}

func (c *CreateOrderCommand) setIDs(orderID, clientID, departmentID kernel.UUID) error {
	if err := errors.Join(orderID.Validate(), clientID.Validate(), departmentID.Validate()); err != nil {
		return err
	}
	c.orderID = orderID
	c.clientID = clientID
	c.departmentID = departmentID
	return nil
}

func (c *CreateOrderCommand) setTitle(title string) error {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title,
		validation.Required,
		validation.RuneLength(1, maxTitleLength),
	); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("title", err)
	}
	c.title = title
	return nil
}

func (c *CreateOrderCommand) setCreator(creator actor.Actor) error {
	if err := errors.Join(creator.ID.Validate(), creator.Role.Validate()); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("creator", err)
	}
	c.creator = creator
	return nil
}
