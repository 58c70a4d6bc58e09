package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxBodyBytes = 64 << 10

type (
	OrderCreator interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (commands.CreatedOrder, error)
	}

	StatusHistoryReader interface {
		Handle(ctx context.Context, query queries.GetStatusHistoryQuery) (queries.GetStatusHistoryQueryResponse, error)
	}

	WorkflowInfoReader interface {
		Handle(ctx context.Context, query queries.GetWorkflowInfoQuery) (queries.GetWorkflowInfoQueryResponse, error)
	}
)

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler  OrderCreator
	updateStatusHandler commands.UpdateOrderStatusHandler

	// Query handlers
	statusHistoryHandler StatusHistoryReader
	workflowInfoHandler  WorkflowInfoReader

	document *Document
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler OrderCreator,
	updateStatusHandler commands.UpdateOrderStatusHandler,
	statusHistoryHandler StatusHistoryReader,
	workflowInfoHandler WorkflowInfoReader,
	document *Document,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		createOrderHandler:   createOrderHandler,
		updateStatusHandler:  updateStatusHandler,
		statusHistoryHandler: statusHistoryHandler,
		workflowInfoHandler:  workflowInfoHandler,
		document:             document,
		logger:               logger.With("component", "http_server"),
	}
}

// CreateOrder handles POST /api/v1/orders - creates an order in the pending status.
func (s *Server) CreateOrder(ctx echo.Context) error {
	principal, err := ActorFrom(ctx)
	if err != nil {
		return unauthorized(ctx, "Authentication required")
	}

	var req CreateOrderRequest
	if err = s.decodeBody(ctx, "/api/v1/orders", &req); err != nil {
		return s.writeError(ctx, err)
	}
	if err = req.Validate(); err != nil {
		return s.writeError(ctx, err)
	}

	clientID, err := kernel.UUIDFromString(req.ClientID)
	if err != nil {
		return s.writeError(ctx, err)
	}
	departmentID, err := kernel.UUIDFromString(req.DepartmentID)
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), clientID, departmentID, req.Title, principal)
	if err != nil {
		return s.writeError(ctx, err)
	}

	created, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, CreateOrderResponse{
		Success: true,
		Order: CreatedOrder{
			ID:        created.OrderID.Bytes(),
			Status:    created.Status.String(),
			CreatedAt: created.CreatedAt,
		},
	})
}

// UpdateOrderStatus handles POST /api/v1/orders/{orderId}/update-status/.
func (s *Server) UpdateOrderStatus(ctx echo.Context, orderID uuid.UUID) error {
	principal, err := ActorFrom(ctx)
	if err != nil {
		return unauthorized(ctx, "Authentication required")
	}

	var req UpdateStatusRequest
	if err = s.decodeBody(ctx, "/api/v1/orders/{orderId}/update-status/", &req); err != nil {
		return s.writeError(ctx, err)
	}
	if err = req.Validate(); err != nil {
		return s.writeError(ctx, err)
	}

	newStatus, err := order.ParseStatus(req.NewStatus)
	if err != nil {
		return s.writeError(ctx, err)
	}

	id, err := kernel.UUIDFromBytes(orderID[:])
	if err != nil {
		return s.writeError(ctx, err)
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(id, newStatus, principal, req.Notes, req.Metadata)
	if err != nil {
		return s.writeError(ctx, err)
	}

	outcome, err := s.updateStatusHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.writeError(ctx, err)
	}

	updatedBy := outcome.UpdatedBy.Bytes()
	return ctx.JSON(http.StatusOK, UpdateStatusResponse{
		Success: true,
		Order: OrderStatus{
			ID:              outcome.OrderID.Bytes(),
			Status:          outcome.NewStatus.String(),
			StatusDisplay:   outcome.NewStatusDisplay,
			StatusUpdatedAt: outcome.Timestamp,
			StatusUpdatedBy: &updatedBy,
		},
		ProgressPercentage: outcome.ProgressPercentage,
		IsTerminal:         outcome.IsTerminal,
		PreviousStatus:     outcome.PreviousStatus.String(),
	})
}

// GetStatusHistory handles GET /api/v1/orders/{orderId}/status-history/.
func (s *Server) GetStatusHistory(ctx echo.Context, orderID uuid.UUID) error {
	principal, err := ActorFrom(ctx)
	if err != nil {
		return unauthorized(ctx, "Authentication required")
	}

	id, err := kernel.UUIDFromBytes(orderID[:])
	if err != nil {
		return s.writeError(ctx, err)
	}

	query, err := queries.NewGetStatusHistoryQuery(id, principal)
	if err != nil {
		return s.writeError(ctx, err)
	}

	result, err := s.statusHistoryHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	response := StatusHistoryResponse{
		OrderID:              result.OrderID.Bytes(),
		CurrentStatus:        result.CurrentStatus.String(),
		CurrentStatusDisplay: result.CurrentStatusDisplay,
		History:              make([]HistoryEntry, len(result.History)),
	}
	for i, entry := range result.History {
		item := HistoryEntry{
			ID:        entry.ID.Bytes(),
			ToStatus:  entry.ToStatus.String(),
			Notes:     entry.Notes,
			Metadata:  entry.Metadata,
			CreatedAt: entry.CreatedAt,
		}
		if entry.FromStatus != order.Unknown {
			from := entry.FromStatus.String()
			item.FromStatus = &from
		}
		if entry.ChangedBy != nil {
			changedBy := entry.ChangedBy.Bytes()
			item.ChangedBy = &changedBy
		}
		response.History[i] = item
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetWorkflowInfo handles GET /api/v1/orders/{orderId}/workflow-info/.
func (s *Server) GetWorkflowInfo(ctx echo.Context, orderID uuid.UUID) error {
	principal, err := ActorFrom(ctx)
	if err != nil {
		return unauthorized(ctx, "Authentication required")
	}

	id, err := kernel.UUIDFromBytes(orderID[:])
	if err != nil {
		return s.writeError(ctx, err)
	}

	query, err := queries.NewGetWorkflowInfoQuery(id, principal)
	if err != nil {
		return s.writeError(ctx, err)
	}

	result, err := s.workflowInfoHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.writeError(ctx, err)
	}

	allowed := make([]StatusOption, len(result.AllowedNext))
	for i, opt := range result.AllowedNext {
		allowed[i] = StatusOption{Value: opt.Value.String(), Display: opt.Display}
	}

	return ctx.JSON(http.StatusOK, WorkflowInfoResponse{
		CurrentStatus:        result.CurrentStatus.String(),
		CurrentStatusDisplay: result.CurrentStatusDisplay,
		AllowedNextStatuses:  allowed,
		ProgressPercentage:   result.ProgressPercentage,
		IsTerminal:           result.IsTerminal,
		StatusColor:          result.StatusColor,
	})
}

// decodeBody reads the request body, checks it against the schema of the
// operation at path and decodes it into dst.
func (s *Server) decodeBody(ctx echo.Context, path string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if s.document != nil {
		if err = s.document.ValidateBody(ctx.Request().Method, path, body); err != nil {
			return err
		}
	}
	if err = json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

var _ ServerInterface = (*Server)(nil)
