package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the order's status fields if the stored version still equals
	// aggregate.Version(), and increments the stored version.
	// Returns *errs.ConcurrentModificationError when another writer got there first and
	// *errs.ObjectNotFoundError when the order does not exist.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by identifier.
	// Returns *errs.ObjectNotFoundError when the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// CountByStatus returns the number of orders per status. Statuses without
	// orders are omitted.
	CountByStatus(ctx context.Context) (map[order.Status]int64, error)
}
