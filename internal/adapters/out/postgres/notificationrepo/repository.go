// Package notificationrepo persists delivered notifications so users can read them later.
package notificationrepo

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title          string     `gorm:"size:200;not null"`
	Message        string     `gorm:"type:text;not null"`
	Kind           string     `gorm:"size:32;not null"`
	RelatedOrderID *uuid.UUID `gorm:"type:uuid;index"`
	IsRead         bool       `gorm:"not null;default:false"`
	CreatedAt      time.Time  `gorm:"not null"`
}

func (NotificationDTO) TableName() string {
	return "notifications"
}

// GormNotificationSink implements ports.NotificationSink by inserting one row per notification.
type GormNotificationSink struct {
	db    *gorm.DB
	clock kernel.Clock
}

func NewGormNotificationSink(db *gorm.DB, clock kernel.Clock) *GormNotificationSink {
	return &GormNotificationSink{db: db, clock: clock}
}

func (s *GormNotificationSink) Notify(ctx context.Context, n event.Notification) error {
	if err := n.UserID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("userID", err)
	}

	dto := NotificationDTO{
		ID:        kernel.NewUUID().Bytes(),
		UserID:    n.UserID.Bytes(),
		Title:     n.Title,
		Message:   n.Message,
		Kind:      string(n.Kind),
		CreatedAt: s.clock.Now(),
	}
	if !n.RelatedOrderID.IsZero() {
		raw := n.RelatedOrderID.Bytes()
		dto.RelatedOrderID = &raw
	}

	if err := s.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewStorageError("store notification", err)
	}
	return nil
}

// Unread returns the unread notifications of userID, newest first.
func (s *GormNotificationSink) Unread(ctx context.Context, userID kernel.UUID) ([]event.Notification, error) {
	var dtos []NotificationDTO
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID.Bytes(), false).
		Order("created_at DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewStorageError("list notifications", err)
	}

	out := make([]event.Notification, 0, len(dtos))
	for _, dto := range dtos {
		n := event.Notification{
			UserID:  userID,
			Title:   dto.Title,
			Message: dto.Message,
			Kind:    event.Kind(dto.Kind),
		}
		if dto.RelatedOrderID != nil {
			related, convErr := kernel.UUIDFromBytes((*dto.RelatedOrderID)[:])
			if convErr != nil {
				return nil, convErr
			}
			n.RelatedOrderID = related
		}
		out = append(out, n)
	}
	return out, nil
}
