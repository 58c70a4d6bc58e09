package http

import (
	"errors"
	"net/http"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/pkg/errs"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"
)

// Error codes returned in the Error body.
const (
	CodeInvalidRequest         = "invalid_request"
	CodeUnknownStatus          = "unknown_status"
	CodeNoOpTransition         = "noop_transition"
	CodeIllegalTransition      = "illegal_transition"
	CodeForbidden              = "forbidden"
	CodeScopeViolation         = "scope_violation"
	CodeNotFound               = "not_found"
	CodeConcurrentModification = "concurrent_modification"
	CodeInternal               = "internal_error"
)

// writeError maps a use case error to its HTTP response.
func (s *Server) writeError(ctx echo.Context, err error) error {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err,
		)
	}
	return ctx.JSON(status, body)
}

func classify(err error) (int, Error) {
	var illegal *order.IllegalTransitionError
	var invalid validation.Errors

	switch {
	case errors.As(err, &illegal):
		allowed := make([]string, 0, len(illegal.Allowed))
		for _, s := range illegal.Allowed {
			allowed = append(allowed, s.String())
		}
		return http.StatusBadRequest, Error{
			Code:                CodeIllegalTransition,
			Error:               err.Error(),
			AllowedNextStatuses: allowed,
		}
	case errors.Is(err, order.ErrNoOpTransition):
		return http.StatusBadRequest, Error{Code: CodeNoOpTransition, Error: err.Error()}
	case errors.Is(err, order.ErrUnknownStatus):
		return http.StatusBadRequest, Error{Code: CodeUnknownStatus, Error: err.Error()}
	case errors.Is(err, services.ErrScopeViolation):
		return http.StatusForbidden, Error{Code: CodeScopeViolation, Error: err.Error()}
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, Error{Code: CodeForbidden, Error: err.Error()}
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, Error{Code: CodeNotFound, Error: "Order not found"}
	case errors.Is(err, errs.ErrConcurrentModification):
		return http.StatusConflict, Error{
			Code:  CodeConcurrentModification,
			Error: "Order was modified concurrently, reload and retry",
		}
	case errors.Is(err, errs.ErrStorage):
		return http.StatusInternalServerError, Error{Code: CodeInternal, Error: "Internal server error"}
	case errors.Is(err, ErrInvalidBody),
		errors.As(err, &invalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest, Error{Code: CodeInvalidRequest, Error: err.Error()}
	default:
		return http.StatusInternalServerError, Error{Code: CodeInternal, Error: "Internal server error"}
	}
}
