package memory

import (
	"context"
	"slices"
	"sync"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
)

// UserDirectory is a fixed set of principals.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[kernel.UUID]actor.Actor
}

// NewUserDirectory returns a directory holding users.
func NewUserDirectory(users ...actor.Actor) *UserDirectory {
	d := &UserDirectory{users: make(map[kernel.UUID]actor.Actor, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Put adds or replaces a user.
func (d *UserDirectory) Put(u actor.Actor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *UserDirectory) Administrators(_ context.Context) ([]kernel.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var admins []kernel.UUID
	for id, u := range d.users {
		if u.Role == actor.RoleAdmin {
			admins = append(admins, id)
		}
	}
	slices.SortFunc(admins, func(a, b kernel.UUID) int {
		return compareUUID(a, b)
	})
	return admins, nil
}

func compareUUID(a, b kernel.UUID) int {
	x, y := a.Bytes(), b.Bytes()
	return slices.Compare(x[:], y[:])
}

// NotificationLog is a NotificationSink that keeps every delivered notification.
type NotificationLog struct {
	mu            sync.Mutex
	notifications []event.Notification
}

func NewNotificationLog() *NotificationLog {
	return &NotificationLog{}
}

func (l *NotificationLog) Notify(_ context.Context, n event.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifications = append(l.notifications, n)
	return nil
}

// Notifications returns a copy of what has been delivered so far.
func (l *NotificationLog) Notifications() []event.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.notifications)
}
