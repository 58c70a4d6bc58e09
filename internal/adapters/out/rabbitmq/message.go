package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
)

// EventMessage is the JSON body published for one event.
type EventMessage struct {
	Event         string                `json:"event"`
	PublishedAt   time.Time             `json:"published_at"`
	Notifications []NotificationPayload `json:"notifications"`
}

type NotificationPayload struct {
	UserID         string `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Kind           string `json:"kind"`
	RelatedOrderID string `json:"related_order_id,omitempty"`
}

func encodeEvent(e event.Event, at time.Time) ([]byte, error) {
	msg := EventMessage{Event: e.Name(), PublishedAt: at}
	for _, n := range e.Notifications() {
		payload := NotificationPayload{
			UserID:  n.UserID.String(),
			Title:   n.Title,
			Message: n.Message,
			Kind:    string(n.Kind),
		}
		if !n.RelatedOrderID.IsZero() {
			payload.RelatedOrderID = n.RelatedOrderID.String()
		}
		msg.Notifications = append(msg.Notifications, payload)
	}
	return json.Marshal(msg)
}

func decodeNotifications(body []byte) ([]event.Notification, error) {
	var msg EventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode event message: %w", err)
	}

	out := make([]event.Notification, 0, len(msg.Notifications))
	for i, p := range msg.Notifications {
		userID, err := kernel.UUIDFromString(p.UserID)
		if err != nil {
			return nil, fmt.Errorf("notification %d: user_id: %w", i, err)
		}
		n := event.Notification{
			UserID:  userID,
			Title:   p.Title,
			Message: p.Message,
			Kind:    event.Kind(p.Kind),
		}
		if p.RelatedOrderID != "" {
			if n.RelatedOrderID, err = kernel.UUIDFromString(p.RelatedOrderID); err != nil {
				return nil, fmt.Errorf("notification %d: related_order_id: %w", i, err)
			}
		}
		out = append(out, n)
	}
	return out, nil
}
