// Package observability decorates use case handlers with tracing, logging and metrics.
package observability

import (
	"context"
	"errors"
	"log/slog"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/pkg/errs"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "orderflow/internal/adapters/observability"

// UpdateOrderStatusHandler wraps the transition executor in a span, logs the
// outcome and counts transitions by result.
type UpdateOrderStatusHandler struct {
	inner   commands.UpdateOrderStatusHandler
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics transitionMetrics
}

type Option func(*UpdateOrderStatusHandler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *UpdateOrderStatusHandler) {
		h.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(h *UpdateOrderStatusHandler) {
		h.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(h *UpdateOrderStatusHandler) {
		h.metrics = newTransitionMetrics(m)
	}
}

// NewUpdateOrderStatusHandler wraps inner.
func NewUpdateOrderStatusHandler(inner commands.UpdateOrderStatusHandler, opts ...Option) *UpdateOrderStatusHandler {
	h := &UpdateOrderStatusHandler{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.tracer == nil {
		h.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return h
}

func (h *UpdateOrderStatusHandler) Handle(ctx context.Context, cmd commands.UpdateOrderStatusCommand) (commands.TransitionOutcome, error) {
	ctx, span := h.tracer.Start(ctx, "UpdateOrderStatus",
		trace.WithAttributes(
			attribute.String("order.id", cmd.OrderID().String()),
			attribute.String("order.status.proposed", cmd.NewStatus().String()),
			attribute.String("actor.role", cmd.Actor().Role.String()),
		))
	defer span.End()

	outcome, err := h.inner.Handle(ctx, cmd)
	result := classify(err)
	h.metrics.record(ctx, cmd.NewStatus(), result)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelInfo
		if result == "error" {
			level = slog.LevelError
		}
		h.log(ctx, level, "status transition rejected",
			slog.String("order.id", cmd.OrderID().String()),
			slog.String("to", cmd.NewStatus().String()),
			slog.String("result", result),
			slog.String("error", err.Error()),
		)
		return outcome, err
	}

	span.SetAttributes(
		attribute.String("order.status.previous", outcome.PreviousStatus.String()),
		attribute.Int("order.progress", outcome.ProgressPercentage),
	)
	h.log(ctx, slog.LevelInfo, "status transition applied",
		slog.String("order.id", outcome.OrderID.String()),
		slog.String("from", outcome.PreviousStatus.String()),
		slog.String("to", outcome.NewStatus.String()),
	)
	return outcome, nil
}

func (h *UpdateOrderStatusHandler) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if h.logger == nil {
		return
	}
	h.logger.LogAttrs(ctx, level, msg, attrs...)
}

// classify maps a handler error to a low-cardinality metric label.
func classify(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrScopeViolation):
		return "unauthorized"
	case errors.Is(err, order.ErrNoOpTransition),
		errors.Is(err, order.ErrIllegalTransition),
		errors.Is(err, order.ErrUnknownStatus):
		return "invalid"
	case errors.Is(err, errs.ErrObjectNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrConcurrentModification):
		return "conflict"
	default:
		return "error"
	}
}

type transitionMetrics struct {
	transitions metric.Int64Counter
}

func newTransitionMetrics(m metric.Meter) transitionMetrics {
	if m == nil {
		return transitionMetrics{}
	}
	transitions, _ := m.Int64Counter("workflow.transitions",
		metric.WithDescription("Number of status transition attempts by result"))
	return transitionMetrics{transitions: transitions}
}

func (m transitionMetrics) record(ctx context.Context, to order.Status, result string) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.status", to.String()),
			attribute.String("result", result),
		))
	}
}

var _ commands.UpdateOrderStatusHandler = (*UpdateOrderStatusHandler)(nil)
