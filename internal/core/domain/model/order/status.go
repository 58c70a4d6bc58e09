package order

import (
	"fmt"
)

// Status is a stage in the order lifecycle.
//
// The set of statuses is closed: the only valid values are the constants below, and
// ParseStatus is the only way to turn an external token into a Status. Because Status
// implements encoding.TextUnmarshaler, request bodies carrying an unknown token fail to
// decode instead of reaching business logic.
//
// Forward path:
//
//	Pending ─> Approved ─> EstimationSent ─> InProgress ─> Done25 ─> Done50 ─> Done75
//	   ─> ReadyForDelivery ─> Delivered ─> PaymentPending ─> PaymentDone ─> Closed
//
// Most intermediate statuses also allow one step back; see DefaultRegistry for the
// full graph.
type Status int

const (
	// Unknown is the zero value. It is never a valid order status; in audit records it
	// marks the creation entry that has no previous status.
	Unknown Status = iota

	Pending
	Approved
	EstimationSent
	InProgress
	Done25
	Done50
	Done75
	ReadyForDelivery
	Delivered
	PaymentPending
	PaymentDone

	// Closed is terminal.
	Closed
)

// getStatusTokens returns the wire token of every valid status.
func getStatusTokens() map[Status]string {
	//nolint:exhaustive // Unknown has no token
	return map[Status]string{
		Pending:          "pending",
		Approved:         "approved",
		EstimationSent:   "estimation_sent",
		InProgress:       "in_progress",
		Done25:           "25_done",
		Done50:           "50_done",
		Done75:           "75_done",
		ReadyForDelivery: "ready_for_delivery",
		Delivered:        "delivered",
		PaymentPending:   "payment_pending",
		PaymentDone:      "payment_done",
		Closed:           "closed",
	}
}

func getStatusesByToken() map[string]Status {
	tokens := getStatusTokens()
	byToken := make(map[string]Status, len(tokens))
	for s, token := range tokens {
		byToken[token] = s
	}
	return byToken
}

// ParseStatus converts a wire token such as "in_progress" into a Status.
//
// Returns:
//   - the matching Status
//   - an error wrapping ErrUnknownStatus if the token is not part of the vocabulary
//
// Example:
//
//	s, err := order.ParseStatus("25_done")
//	if errors.Is(err, order.ErrUnknownStatus) {
//	    // reject request
//	}
func ParseStatus(token string) (Status, error) {
	if s, ok := getStatusesByToken()[token]; ok {
		return s, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownStatus, token)
}

// Validate returns an error wrapping ErrUnknownStatus for Unknown and out-of-range values.
func (s Status) Validate() error {
	if _, ok := getStatusTokens()[s]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownStatus, int(s))
	}
	return nil
}

// String returns the wire token, or "unknown" for invalid values.
func (s Status) String() string {
	if token, ok := getStatusTokens()[s]; ok {
		return token
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
