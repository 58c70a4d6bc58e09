// Package historyrepo stores the order status audit trail in order_status_history.
package historyrepo

import (
	"time"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordDTO is one audit row. FromStatus is NULL for the creation entry.
// Seq breaks ties between records written within the same timestamp.
type RecordDTO struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Seq        int64             `gorm:"autoIncrement"`
	OrderID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_order_status_history_order_created,priority:1"`
	FromStatus *string           `gorm:"size:32"`
	ToStatus   string            `gorm:"size:32;not null"`
	ChangedBy  *uuid.UUID        `gorm:"type:uuid"`
	Notes      string            `gorm:"type:text;not null;default:''"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;index:idx_order_status_history_order_created,priority:2"`
}

func (RecordDTO) TableName() string {
	return "order_status_history"
}

func fromDomain(r *history.Record) RecordDTO {
	dto := RecordDTO{
		ID:        r.ID().Bytes(),
		OrderID:   r.OrderID().Bytes(),
		ToStatus:  r.ToStatus().String(),
		Notes:     r.Notes(),
		CreatedAt: r.CreatedAt(),
	}
	if !r.IsCreation() {
		from := r.FromStatus().String()
		dto.FromStatus = &from
	}
	if by := r.ChangedBy(); by != nil {
		raw := by.Bytes()
		dto.ChangedBy = &raw
	}
	if metadata := r.Metadata(); len(metadata) > 0 {
		dto.Metadata = datatypes.JSONMap(metadata)
	}
	return dto
}

func toDomain(dto RecordDTO) (*history.Record, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	from := order.Unknown
	if dto.FromStatus != nil {
		if from, err = order.ParseStatus(*dto.FromStatus); err != nil {
			return nil, err
		}
	}
	to, err := order.ParseStatus(dto.ToStatus)
	if err != nil {
		return nil, err
	}

	var changedBy *kernel.UUID
	if dto.ChangedBy != nil {
		by, byErr := kernel.UUIDFromBytes((*dto.ChangedBy)[:])
		if byErr != nil {
			return nil, byErr
		}
		changedBy = &by
	}

	return history.NewRecord(id, orderID, from, to, changedBy, dto.Notes, dto.Metadata, dto.CreatedAt.UTC())
}
