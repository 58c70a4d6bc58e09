package http

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	maxTitleLength = 200
	maxNotesLength = 2000
)

// Validate checks the create order payload.
func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ClientID, validation.Required, is.UUID),
		validation.Field(&r.DepartmentID, validation.Required, is.UUID),
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
	)
}

// Validate checks the status update payload. The status token itself is
// checked against the registry by the handler.
func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewStatus, validation.Required),
		validation.Field(&r.Notes, validation.RuneLength(0, maxNotesLength)),
	)
}
