package memory

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
)

// OrderRepository reads committed rows overlaid with the unit of work's staged writes.
type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("add order", err)
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.write(stagedOrder{row: rowFromOrder(aggregate), isNew: true})
}

func (r *OrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("update order", err)
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	row := rowFromOrder(aggregate)
	expected := row.version
	row.version = expected + 1

	current, ok := r.lookup(aggregate.ID())
	if !ok {
		return errs.NewObjectNotFoundError("orderID", aggregate.ID())
	}
	if current.version != expected {
		return errs.NewConcurrentModificationError("order", aggregate.ID(), expected)
	}

	return r.write(stagedOrder{row: row, expect: expected})
}

func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageError("get order", err)
	}
	row, ok := r.lookup(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("orderID", id)
	}
	return row.toDomain()
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageError("count orders", err)
	}

	store := r.uow.store
	store.mu.Lock()
	rows := make(map[kernel.UUID]orderRow, len(store.orders))
	for id, row := range store.orders {
		rows[id] = row
	}
	store.mu.Unlock()

	for _, staged := range r.uow.orders {
		rows[staged.row.id] = staged.row
	}

	counts := make(map[order.Status]int64)
	for _, row := range rows {
		counts[row.status]++
	}
	return counts, nil
}

// lookup returns the most recent staged row for id, or the committed one.
func (r *OrderRepository) lookup(id kernel.UUID) (orderRow, bool) {
	for i := len(r.uow.orders) - 1; i >= 0; i-- {
		if r.uow.orders[i].row.id == id {
			return r.uow.orders[i].row, true
		}
	}

	store := r.uow.store
	store.mu.Lock()
	defer store.mu.Unlock()
	row, ok := store.orders[id]
	return row, ok
}

func (r *OrderRepository) write(staged stagedOrder) error {
	if r.uow.active {
		if staged.isNew {
			if _, exists := r.lookup(staged.row.id); exists {
				return errs.NewStorageError("add order", errDuplicate(staged.row.id))
			}
		}
		r.uow.orders = append(r.uow.orders, staged)
		return nil
	}

	store := r.uow.store
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.apply([]stagedOrder{staged}, nil)
}
