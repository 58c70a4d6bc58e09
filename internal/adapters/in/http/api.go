package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Wire types of openapi.yaml.

type CreateOrderRequest struct {
	ClientID     string `json:"client_id"`
	DepartmentID string `json:"department_id"`
	Title        string `json:"title"`
}

type CreatedOrder struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateOrderResponse struct {
	Success bool         `json:"success"`
	Order   CreatedOrder `json:"order"`
}

type UpdateStatusRequest struct {
	NewStatus string         `json:"new_status"`
	Notes     string         `json:"notes,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type OrderStatus struct {
	ID              uuid.UUID  `json:"id"`
	Status          string     `json:"status"`
	StatusDisplay   string     `json:"status_display"`
	StatusUpdatedAt time.Time  `json:"status_updated_at"`
	StatusUpdatedBy *uuid.UUID `json:"status_updated_by"`
}

type UpdateStatusResponse struct {
	Success            bool        `json:"success"`
	Order              OrderStatus `json:"order"`
	ProgressPercentage int         `json:"progress_percentage"`
	IsTerminal         bool        `json:"is_terminal"`
	PreviousStatus     string      `json:"previous_status"`
}

type HistoryEntry struct {
	ID         uuid.UUID      `json:"id"`
	FromStatus *string        `json:"from_status"`
	ToStatus   string         `json:"to_status"`
	ChangedBy  *uuid.UUID     `json:"changed_by"`
	Notes      string         `json:"notes"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type StatusHistoryResponse struct {
	OrderID              uuid.UUID      `json:"order_id"`
	CurrentStatus        string         `json:"current_status"`
	CurrentStatusDisplay string         `json:"current_status_display"`
	History              []HistoryEntry `json:"history"`
}

type StatusOption struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

type WorkflowInfoResponse struct {
	CurrentStatus        string         `json:"current_status"`
	CurrentStatusDisplay string         `json:"current_status_display"`
	AllowedNextStatuses  []StatusOption `json:"allowed_next_statuses"`
	ProgressPercentage   int            `json:"progress_percentage"`
	IsTerminal           bool           `json:"is_terminal"`
	StatusColor          string         `json:"status_color"`
}

type Error struct {
	Success             bool     `json:"success"`
	Code                string   `json:"code"`
	Error               string   `json:"error"`
	AllowedNextStatuses []string `json:"allowed_next_statuses,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Create an order in the pending status
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// Move an order to another status
	// (POST /api/v1/orders/{orderId}/update-status/)
	UpdateOrderStatus(ctx echo.Context, orderID uuid.UUID) error
	// Audit trail of an order, newest first
	// (GET /api/v1/orders/{orderId}/status-history/)
	GetStatusHistory(ctx echo.Context, orderID uuid.UUID) error
	// Current status with the statuses it may move to
	// (GET /api/v1/orders/{orderId}/workflow-info/)
	GetWorkflowInfo(ctx echo.Context, orderID uuid.UUID) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// CreateOrder converts echo context to params.
func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

// UpdateOrderStatus converts echo context to params.
func (w *ServerInterfaceWrapper) UpdateOrderStatus(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateOrderStatus(ctx, orderID)
}

// GetStatusHistory converts echo context to params.
func (w *ServerInterfaceWrapper) GetStatusHistory(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetStatusHistory(ctx, orderID)
}

// GetWorkflowInfo converts echo context to params.
func (w *ServerInterfaceWrapper) GetWorkflowInfo(ctx echo.Context) error {
	orderID, err := bindOrderID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetWorkflowInfo(ctx, orderID)
}

func bindOrderID(ctx echo.Context) (uuid.UUID, error) {
	var orderID uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "orderId", ctx.Param("orderId"), &orderID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter orderId: %s", err))
	}
	return orderID, nil
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// APIBaseURL prefixes the versioned routes.
const APIBaseURL = "/api/v1"

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the routes under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST(baseURL+"/orders", wrapper.CreateOrder)
	router.POST(baseURL+"/orders/:orderId/update-status/", wrapper.UpdateOrderStatus)
	router.GET(baseURL+"/orders/:orderId/status-history/", wrapper.GetStatusHistory)
	router.GET(baseURL+"/orders/:orderId/workflow-info/", wrapper.GetWorkflowInfo)
}
