// Package queries contains read-only operations over orders and their audit trail.
package queries

import (
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// Read side interfaces. Query handlers never begin a transaction; repositories
// obtained from a fresh unit of work read committed state.
type (
	OrderReader interface {
		OrderRepository() ports.OrderRepository
	}

	HistoryReader interface {
		StatusHistoryRepository() ports.StatusHistoryRepository
	}

	ReadUoW interface {
		OrderReader
		HistoryReader
	}

	ReadUoWFactory interface {
		Create() ReadUoW
	}

	// ViewAuthorizer is implemented by services.AuthorizationGate.
	ViewAuthorizer interface {
		AuthorizeView(a actor.Actor, ownership order.OwnershipContext) error
	}
)
