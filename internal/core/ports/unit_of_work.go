package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command or query.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is the transaction boundary around order and history writes.
// Repositories obtained after Begin take part in the transaction; before Begin
// they read committed state directly.
type UnitOfWork interface {
	// Begin starts a transaction. Calling it twice is a no-op.
	Begin(ctx context.Context) error

	// Commit makes every write since Begin visible, or none of them.
	Commit(ctx context.Context) error

	// Rollback discards every write since Begin. It returns an error when no
	// transaction is active, which callers deferring it may ignore.
	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	StatusHistoryRepository() StatusHistoryRepository
}
