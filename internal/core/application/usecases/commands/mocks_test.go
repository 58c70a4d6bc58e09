package commands_test

import (
	"context"
	"iter"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context) (map[order.Status]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[order.Status]int64)
	return counts, args.Error(1)
}

type MockHistoryRepository struct{ mock.Mock }

func (m *MockHistoryRepository) Append(ctx context.Context, r *history.Record) (*history.Record, error) {
	args := m.Called(ctx, r)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return r, nil
}

func (m *MockHistoryRepository) HistoryFor(ctx context.Context, orderID kernel.UUID) iter.Seq2[*history.Record, error] {
	args := m.Called(ctx, orderID)
	return args.Get(0).(iter.Seq2[*history.Record, error])
}

type MockWorkflowUoW struct{ mock.Mock }

func (m *MockWorkflowUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWorkflowUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWorkflowUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWorkflowUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockWorkflowUoW) StatusHistoryRepository() ports.StatusHistoryRepository {
	args := m.Called()
	return args.Get(0).(ports.StatusHistoryRepository)
}

type MockWorkflowUoWFactory struct{ mock.Mock }

func (m *MockWorkflowUoWFactory) Create() commands.WorkflowUoW {
	args := m.Called()
	return args.Get(0).(commands.WorkflowUoW)
}

type MockGate struct{ mock.Mock }

func (m *MockGate) AuthorizeTransition(a actor.Actor, ownership order.OwnershipContext, proposed order.Status) error {
	args := m.Called(a, ownership, proposed)
	return args.Error(0)
}

func (m *MockGate) AuthorizeView(a actor.Actor, ownership order.OwnershipContext) error {
	args := m.Called(a, ownership)
	return args.Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, events ...event.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockUserDirectory struct{ mock.Mock }

func (m *MockUserDirectory) Administrators(ctx context.Context) ([]kernel.UUID, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]kernel.UUID)
	return ids, args.Error(1)
}

// portsFactory adapts a ports.UnitOfWorkFactory to commands.WorkflowUoWFactory.
type portsFactory struct {
	inner ports.UnitOfWorkFactory
}

func (f portsFactory) Create() commands.WorkflowUoW {
	return f.inner.Create()
}
