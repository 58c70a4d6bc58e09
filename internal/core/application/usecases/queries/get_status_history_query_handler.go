package queries

import (
	"context"

	"orderflow/internal/core/domain/model/order"
)

// GetStatusHistoryQueryHandler reads an order and its audit trail after checking that
// the actor may view the order.
type GetStatusHistoryQueryHandler struct {
	uowFactory ReadUoWFactory
	registry   *order.Registry
	gate       ViewAuthorizer
}

func NewGetStatusHistoryQueryHandler(uowFactory ReadUoWFactory, registry *order.Registry, gate ViewAuthorizer) GetStatusHistoryQueryHandler {
	return GetStatusHistoryQueryHandler{uowFactory: uowFactory, registry: registry, gate: gate}
}

// Handle returns the order's status and history, newest first.
// Errors: *errs.ObjectNotFoundError for unknown orders, the gate's error when the
// actor may not view the order, *errs.StorageError when reading fails.
func (h GetStatusHistoryQueryHandler) Handle(ctx context.Context, query GetStatusHistoryQuery) (GetStatusHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetStatusHistoryQueryResponse{}, err
	}

	uow := h.uowFactory.Create()
	aggregate, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return GetStatusHistoryQueryResponse{}, err
	}

	if err = h.gate.AuthorizeView(query.Actor(), aggregate.Ownership()); err != nil {
		return GetStatusHistoryQueryResponse{}, err
	}

	entries := make([]HistoryEntry, 0)
	for record, iterErr := range uow.StatusHistoryRepository().HistoryFor(ctx, aggregate.ID()) {
		if iterErr != nil {
			return GetStatusHistoryQueryResponse{}, iterErr
		}
		entries = append(entries, HistoryEntry{
			ID:         record.ID(),
			FromStatus: record.FromStatus(),
			ToStatus:   record.ToStatus(),
			ChangedBy:  record.ChangedBy(),
			Notes:      record.Notes(),
			Metadata:   record.Metadata(),
			CreatedAt:  record.CreatedAt(),
		})
	}

	return GetStatusHistoryQueryResponse{
		OrderID:              aggregate.ID(),
		CurrentStatus:        aggregate.Status(),
		CurrentStatusDisplay: h.registry.DisplayOf(aggregate.Status()),
		History:              entries,
	}, nil
}
