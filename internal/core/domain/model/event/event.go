package event

import (
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// Kind classifies a notification for the receiving UI.
type Kind string

const (
	KindStatusChange Kind = "status_change"
	KindPayment      Kind = "payment"
)

// Notification is a message addressed to one user.
type Notification struct {
	UserID         kernel.UUID
	Title          string
	Message        string
	Kind           Kind
	RelatedOrderID kernel.UUID
}

// Event is something that happened to an order after a transition committed.
type Event interface {
	// Name identifies the event type, used as the message routing key.
	Name() string
	// Notifications expands the event into per-recipient messages.
	Notifications() []Notification
}

// StatusChanged is published after every committed transition and is addressed
// to the order's client.
type StatusChanged struct {
	OrderID    kernel.UUID
	OrderTitle string
	ClientID   kernel.UUID
	From       order.Status
	To         order.Status
	ToDisplay  string
	ChangedBy  *kernel.UUID
	OccurredAt time.Time
}

func (StatusChanged) Name() string {
	return "order.status_changed"
}

func (e StatusChanged) Notifications() []Notification {
	display := e.ToDisplay
	if display == "" {
		display = e.To.String()
	}
	return []Notification{{
		UserID:         e.ClientID,
		Title:          "Order status updated",
		Message:        fmt.Sprintf("Your order %q is now %s.", e.OrderTitle, display),
		Kind:           KindStatusChange,
		RelatedOrderID: e.OrderID,
	}}
}

// PaymentReceived is published when an order reaches payment_done and is
// addressed to every administrator.
type PaymentReceived struct {
	OrderID    kernel.UUID
	OrderTitle string
	Recipients []kernel.UUID
	OccurredAt time.Time
}

func (PaymentReceived) Name() string {
	return "order.payment_received"
}

func (e PaymentReceived) Notifications() []Notification {
	out := make([]Notification, 0, len(e.Recipients))
	for _, admin := range e.Recipients {
		out = append(out, Notification{
			UserID:         admin,
			Title:          "Payment received",
			Message:        fmt.Sprintf("Payment for order %q has been received.", e.OrderTitle),
			Kind:           KindPayment,
			RelatedOrderID: e.OrderID,
		})
	}
	return out
}
