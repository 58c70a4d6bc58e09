package memory

import (
	"cmp"
	"context"
	"iter"
	"slices"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// StatusHistoryRepository is the append-only audit log kept in the Store.
type StatusHistoryRepository struct {
	uow *UnitOfWork
}

func (r *StatusHistoryRepository) Append(ctx context.Context, record *history.Record) (*history.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageError("append status history", err)
	}
	if record == nil {
		return nil, errs.NewValueIsRequiredError("record")
	}

	if r.uow.active {
		r.uow.history = append(r.uow.history, record)
		return record, nil
	}

	store := r.uow.store
	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.apply(nil, []*history.Record{record}); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *StatusHistoryRepository) HistoryFor(ctx context.Context, orderID kernel.UUID) iter.Seq2[*history.Record, error] {
	return func(yield func(*history.Record, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, errs.NewStorageError("read status history", err))
			return
		}

		rows := r.snapshot(orderID)
		for _, row := range rows {
			if !yield(row.record, nil) {
				return
			}
		}
	}
}

// snapshot collects the order's records, newest first. Staged records of an active
// unit of work are included after the committed ones.
func (r *StatusHistoryRepository) snapshot(orderID kernel.UUID) []historyRow {
	store := r.uow.store
	store.mu.Lock()
	var rows []historyRow
	for _, row := range store.history {
		if row.record.OrderID().IsEqual(orderID) {
			rows = append(rows, row)
		}
	}
	next := store.seq
	store.mu.Unlock()

	for _, rec := range r.uow.history {
		next++
		if rec.OrderID().IsEqual(orderID) {
			rows = append(rows, historyRow{seq: next, record: rec})
		}
	}

	slices.SortFunc(rows, func(a, b historyRow) int {
		if c := b.record.CreatedAt().Compare(a.record.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	return rows
}
