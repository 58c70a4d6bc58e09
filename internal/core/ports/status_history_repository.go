package ports

import (
	"context"
	"iter"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
)

// StatusHistoryRepository is the append-only audit log of status changes.
// There is deliberately no way to change or remove a record.
type StatusHistoryRepository interface {
	// Append stores record and returns it as persisted.
	// Storage failures are reported as *errs.StorageError.
	Append(ctx context.Context, record *history.Record) (*history.Record, error)

	// HistoryFor yields the records of orderID, newest first.
	// The sequence is lazy and restartable: every iteration queries the store again
	// and reflects what is persisted at that moment. A storage failure is yielded
	// once as the error and ends the sequence.
	HistoryFor(ctx context.Context, orderID kernel.UUID) iter.Seq2[*history.Record, error]
}
