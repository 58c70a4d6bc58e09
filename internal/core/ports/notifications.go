package ports

import (
	"context"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
)

// EventPublisher hands committed workflow events to the notification pipeline.
// Implementations must not block on delivery.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// NotificationSink delivers one notification to its recipient.
type NotificationSink interface {
	Notify(ctx context.Context, n event.Notification) error
}

// UserDirectory answers questions about principals the workflow needs to address.
type UserDirectory interface {
	// Administrators returns the identifiers of every administrator.
	Administrators(ctx context.Context) ([]kernel.UUID, error)
}
