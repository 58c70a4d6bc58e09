package memory

import (
	"sync"
	"time"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// orderRow is the stored form of an order; aggregates are rebuilt from it on every read.
type orderRow struct {
	id              kernel.UUID
	clientID        kernel.UUID
	departmentID    kernel.UUID
	title           string
	status          order.Status
	statusUpdatedAt time.Time
	statusUpdatedBy *kernel.UUID
	version         int64
	createdAt       time.Time
}

func rowFromOrder(o *order.Order) orderRow {
	return orderRow{
		id:              o.ID(),
		clientID:        o.ClientID(),
		departmentID:    o.DepartmentID(),
		title:           o.Title(),
		status:          o.Status(),
		statusUpdatedAt: o.StatusUpdatedAt(),
		statusUpdatedBy: o.StatusUpdatedBy(),
		version:         o.Version(),
		createdAt:       o.CreatedAt(),
	}
}

func (r orderRow) toDomain() (*order.Order, error) {
	return order.RestoreOrder(r.id, r.clientID, r.departmentID, r.title, r.status,
		r.statusUpdatedAt, r.statusUpdatedBy, r.version, r.createdAt)
}

// historyRow keeps the insertion sequence so records with equal timestamps
// still come back newest first.
type historyRow struct {
	seq    int64
	record *history.Record
}

// Store is the shared committed state behind every memory UnitOfWork.
// It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	orders  map[kernel.UUID]orderRow
	history []historyRow
	seq     int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		orders: make(map[kernel.UUID]orderRow),
	}
}
