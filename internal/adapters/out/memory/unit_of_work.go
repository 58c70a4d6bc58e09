package memory

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// ErrNoTransaction is returned by Commit and Rollback without a preceding Begin.
var ErrNoTransaction = errors.New("no active transaction")

func errDuplicate(id kernel.UUID) error {
	return fmt.Errorf("duplicate order id %s", id)
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a factory sharing store between units of work.
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// Create returns a new, inactive UnitOfWork.
func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

type stagedOrder struct {
	row    orderRow
	isNew  bool
	expect int64
}

// UnitOfWork stages writes after Begin and applies them to the Store on Commit.
//
// Commit re-checks every staged order update against the stored version under the
// store lock, so two units of work that read the same version cannot both commit:
// the second gets *errs.ConcurrentModificationError and none of its writes land.
// Without Begin, repository writes are applied immediately.
type UnitOfWork struct {
	store   *Store
	active  bool
	orders  []stagedOrder
	history []*history.Record
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("begin", err)
	}
	if u.active {
		return nil
	}
	u.active = true
	u.orders = nil
	u.history = nil
	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	defer u.reset()

	if err := ctx.Err(); err != nil {
		return errs.NewStorageError("commit", err)
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	return u.store.apply(u.orders, u.history)
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.reset()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) StatusHistoryRepository() ports.StatusHistoryRepository {
	return &StatusHistoryRepository{uow: u}
}

func (u *UnitOfWork) reset() {
	u.active = false
	u.orders = nil
	u.history = nil
}

// apply validates and writes staged changes. The caller holds s.mu.
func (s *Store) apply(orders []stagedOrder, records []*history.Record) error {
	view := make(map[kernel.UUID]orderRow, len(orders))
	for _, staged := range orders {
		current, exists := view[staged.row.id]
		if !exists {
			current, exists = s.orders[staged.row.id]
		}
		switch {
		case staged.isNew && exists:
			return errs.NewStorageError("add order", errDuplicate(staged.row.id))
		case !staged.isNew && !exists:
			return errs.NewObjectNotFoundError("orderID", staged.row.id)
		case !staged.isNew && current.version != staged.expect:
			return errs.NewConcurrentModificationError("order", staged.row.id, staged.expect)
		}
		view[staged.row.id] = staged.row
	}

	for id, row := range view {
		s.orders[id] = row
	}
	for _, rec := range records {
		s.seq++
		s.history = append(s.history, historyRow{seq: s.seq, record: rec})
	}
	return nil
}
