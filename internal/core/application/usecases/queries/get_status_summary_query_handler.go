package queries

import (
	"context"

	"orderflow/internal/core/domain/model/order"
)

type GetStatusSummaryQueryHandler struct {
	uowFactory ReadUoWFactory
	registry   *order.Registry
}

func NewGetStatusSummaryQueryHandler(uowFactory ReadUoWFactory, registry *order.Registry) GetStatusSummaryQueryHandler {
	return GetStatusSummaryQueryHandler{uowFactory: uowFactory, registry: registry}
}

func (h GetStatusSummaryQueryHandler) Handle(ctx context.Context, query GetStatusSummaryQuery) (GetStatusSummaryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetStatusSummaryQueryResponse{}, err
	}

	counts, err := h.uowFactory.Create().OrderRepository().CountByStatus(ctx)
	if err != nil {
		return GetStatusSummaryQueryResponse{}, err
	}

	var resp GetStatusSummaryQueryResponse
	for _, s := range h.registry.Statuses() {
		n := counts[s]
		resp.Counts = append(resp.Counts, StatusCount{Status: s, Display: h.registry.DisplayOf(s), Count: n})
		resp.Total += n
		if !h.registry.IsTerminal(s) {
			resp.Open += n
		}
	}
	return resp, nil
}
