package memory_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func seedOrder(t *testing.T, factory *memory.UnitOfWorkFactory) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "Website", createdAt)
	require.NoError(t, err)
	require.NoError(t, factory.Create().OrderRepository().Add(t.Context(), o))
	return o
}

func advance(t *testing.T, o *order.Order, to order.Status) {
	t.Helper()
	validator := services.NewTransitionValidator(order.DefaultRegistry())
	_, err := o.ChangeStatus(validator, to, nil, createdAt.Add(time.Hour))
	require.NoError(t, err)
}

func TestUnitOfWork_CommitAppliesAllWrites(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	seeded := seedOrder(t, factory)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	loaded, err := uow.OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)
	advance(t, loaded, order.Approved)
	require.NoError(t, uow.OrderRepository().Update(ctx, loaded))
	rec, err := history.NewRecord(kernel.UUID{}, loaded.ID(), order.Pending, order.Approved, nil, "", nil, createdAt)
	require.NoError(t, err)
	_, err = uow.StatusHistoryRepository().Append(ctx, rec)
	require.NoError(t, err)

	outside, err := factory.Create().OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Pending, outside.Status(), "staged writes must stay invisible before commit")

	require.NoError(t, uow.Commit(ctx))

	committed, err := factory.Create().OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Approved, committed.Status())
	assert.EqualValues(t, 2, committed.Version())

	var records []*history.Record
	for r, err := range factory.Create().StatusHistoryRepository().HistoryFor(ctx, seeded.ID()) {
		require.NoError(t, err)
		records = append(records, r)
	}
	require.Len(t, records, 1)
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	seeded := seedOrder(t, factory)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	loaded, err := uow.OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)
	advance(t, loaded, order.Approved)
	require.NoError(t, uow.OrderRepository().Update(ctx, loaded))
	require.NoError(t, uow.Rollback(ctx))

	after, err := factory.Create().OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Pending, after.Status())
	assert.EqualValues(t, 1, after.Version())

	assert.ErrorIs(t, uow.Rollback(ctx), memory.ErrNoTransaction)
	assert.ErrorIs(t, uow.Commit(ctx), memory.ErrNoTransaction)
}

func TestUnitOfWork_SecondCommitOfSameVersionConflicts(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	seeded := seedOrder(t, factory)

	first, second := factory.Create(), factory.Create()
	require.NoError(t, first.Begin(ctx))
	require.NoError(t, second.Begin(ctx))

	a, err := first.OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)
	b, err := second.OrderRepository().Get(ctx, seeded.ID())
	require.NoError(t, err)

	advance(t, a, order.Approved)
	advance(t, b, order.Approved)
	require.NoError(t, first.OrderRepository().Update(ctx, a))
	require.NoError(t, second.OrderRepository().Update(ctx, b))

	require.NoError(t, first.Commit(ctx))
	err = second.Commit(ctx)

	var conflict *errs.ConcurrentModificationError
	require.ErrorAs(t, err, &conflict)
	assert.EqualValues(t, 1, conflict.ExpectedVersion)

	t.Run("stale update is refused before commit too", func(t *testing.T) {
		stale := factory.Create()
		require.NoError(t, stale.Begin(ctx))
		assert.ErrorIs(t, stale.OrderRepository().Update(ctx, b), errs.ErrConcurrentModification)
	})
}

func TestOrderRepository_NotFound(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), "Ghost", createdAt)
	require.NoError(t, err)

	_, err = factory.Create().OrderRepository().Get(ctx, o.ID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.ErrorIs(t, factory.Create().OrderRepository().Update(ctx, o), errs.ErrObjectNotFound)
}

func TestOrderRepository_DuplicateAdd(t *testing.T) {
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	o := seedOrder(t, factory)

	err := factory.Create().OrderRepository().Add(t.Context(), o)

	assert.ErrorIs(t, err, errs.ErrStorage)
}

func TestOrderRepository_CountByStatus(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	seedOrder(t, factory)
	seedOrder(t, factory)
	third := seedOrder(t, factory)
	advance(t, third, order.Approved)
	require.NoError(t, factory.Create().OrderRepository().Update(ctx, third))

	counts, err := factory.Create().OrderRepository().CountByStatus(ctx)

	require.NoError(t, err)
	assert.Equal(t, map[order.Status]int64{order.Pending: 2, order.Approved: 1}, counts)
}

func TestStatusHistoryRepository_HistoryFor(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	repo := factory.Create().StatusHistoryRepository()
	orderID := kernel.NewUUID()

	steps := []order.Status{order.Pending, order.Approved, order.InProgress}
	for i := 1; i < len(steps); i++ {
		rec, err := history.NewRecord(kernel.UUID{}, orderID, steps[i-1], steps[i], nil, "", nil, createdAt.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		_, err = repo.Append(ctx, rec)
		require.NoError(t, err)
	}
	other, err := history.NewRecord(kernel.UUID{}, kernel.NewUUID(), order.Pending, order.Approved, nil, "", nil, createdAt)
	require.NoError(t, err)
	_, err = repo.Append(ctx, other)
	require.NoError(t, err)

	seq := repo.HistoryFor(ctx, orderID)

	collect := func() []order.Status {
		var got []order.Status
		for r, err := range seq {
			require.NoError(t, err)
			got = append(got, r.ToStatus())
		}
		return got
	}

	assert.Equal(t, []order.Status{order.InProgress, order.Approved}, collect())

	t.Run("re-iterating reflects newly appended records", func(t *testing.T) {
		rec, err := history.NewRecord(kernel.UUID{}, orderID, order.InProgress, order.Done25, nil, "", nil, createdAt.Add(time.Hour))
		require.NoError(t, err)
		_, err = repo.Append(ctx, rec)
		require.NoError(t, err)

		assert.Equal(t, []order.Status{order.Done25, order.InProgress, order.Approved}, collect())
	})

	t.Run("early break stops iteration", func(t *testing.T) {
		count := 0
		for range seq {
			count++
			break
		}
		assert.Equal(t, 1, count)
	})

	t.Run("cancelled context yields a storage error", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		for r, err := range repo.HistoryFor(cancelled, orderID) {
			assert.Nil(t, r)
			assert.ErrorIs(t, err, errs.ErrStorage)
		}
	})
}
