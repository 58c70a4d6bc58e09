package queries

import (
	"context"

	"orderflow/internal/core/domain/model/order"
)

// GetWorkflowInfoQueryHandler combines an order's current status with the registry's
// metadata for that status.
//
// Example:
//
//	handler := NewGetWorkflowInfoQueryHandler(uowFactory, order.DefaultRegistry(), gate)
//	info, err := handler.Handle(ctx, query)
//	// info.AllowedNext for 25_done: [50_done, in_progress]
type GetWorkflowInfoQueryHandler struct {
	uowFactory ReadUoWFactory
	registry   *order.Registry
	gate       ViewAuthorizer
}

func NewGetWorkflowInfoQueryHandler(uowFactory ReadUoWFactory, registry *order.Registry, gate ViewAuthorizer) GetWorkflowInfoQueryHandler {
	return GetWorkflowInfoQueryHandler{uowFactory: uowFactory, registry: registry, gate: gate}
}

func (h GetWorkflowInfoQueryHandler) Handle(ctx context.Context, query GetWorkflowInfoQuery) (GetWorkflowInfoQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetWorkflowInfoQueryResponse{}, err
	}

	aggregate, err := h.uowFactory.Create().OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return GetWorkflowInfoQueryResponse{}, err
	}

	if err = h.gate.AuthorizeView(query.Actor(), aggregate.Ownership()); err != nil {
		return GetWorkflowInfoQueryResponse{}, err
	}

	def, err := h.registry.Describe(aggregate.Status())
	if err != nil {
		return GetWorkflowInfoQueryResponse{}, err
	}

	options := make([]StatusOption, 0, len(def.AllowedNext))
	for _, next := range def.AllowedNext {
		options = append(options, StatusOption{Value: next, Display: h.registry.DisplayOf(next)})
	}

	return GetWorkflowInfoQueryResponse{
		CurrentStatus:        def.Value,
		CurrentStatusDisplay: def.Display,
		AllowedNext:          options,
		ProgressPercentage:   def.ProgressPercentage,
		IsTerminal:           h.registry.IsTerminal(def.Value),
		StatusColor:          def.Color,
	}, nil
}
