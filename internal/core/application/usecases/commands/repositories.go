// Package commands contains the operations that change order state.
// Every command follows the same pattern: a constructor that validates input, a
// handler that opens a unit of work, applies the change and commits.
package commands

import (
	"context"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// Unit of Work interfaces give command handlers transactional access to the order
// row and its audit trail.
type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides the order repository bound to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// HistoryRepoFactory provides the audit log bound to the transaction.
	HistoryRepoFactory interface {
		StatusHistoryRepository() ports.StatusHistoryRepository
	}

	// WorkflowUoW covers both halves of a transition: the status update and the
	// history append commit together or not at all.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   err = uow.OrderRepository().Update(ctx, o)
	//   _, err = uow.StatusHistoryRepository().Append(ctx, rec)
	//
	//   err = uow.Commit(ctx)
	WorkflowUoW interface {
		TxManager
		OrderRepoFactory
		HistoryRepoFactory
	}

	// WorkflowUoWFactory creates a new WorkflowUoW per command.
	WorkflowUoWFactory interface {
		Create() WorkflowUoW
	}
)

// Authorization interfaces, implemented by services.AuthorizationGate.
type (
	TransitionAuthorizer interface {
		AuthorizeTransition(a actor.Actor, ownership order.OwnershipContext, proposed order.Status) error
	}

	ViewAuthorizer interface {
		AuthorizeView(a actor.Actor, ownership order.OwnershipContext) error
	}
)
