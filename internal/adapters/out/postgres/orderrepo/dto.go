// Package orderrepo maps order aggregates to the orders table.
package orderrepo

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row stored for an order. Status is kept as its token so the
// table stays readable without the registry.
type OrderDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	DepartmentID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	Title           string     `gorm:"size:200;not null"`
	Status          string     `gorm:"size:32;index;not null"`
	StatusUpdatedAt time.Time  `gorm:"not null"`
	StatusUpdatedBy *uuid.UUID `gorm:"type:uuid"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:              o.ID().Bytes(),
		ClientID:        o.ClientID().Bytes(),
		DepartmentID:    o.DepartmentID().Bytes(),
		Title:           o.Title(),
		Status:          o.Status().String(),
		StatusUpdatedAt: o.StatusUpdatedAt(),
		StatusUpdatedBy: optionalBytes(o.StatusUpdatedBy()),
		Version:         o.Version(),
		CreatedAt:       o.CreatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	clientID, err := kernel.UUIDFromBytes(dto.ClientID[:])
	if err != nil {
		return nil, err
	}
	departmentID, err := kernel.UUIDFromBytes(dto.DepartmentID[:])
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var updatedBy *kernel.UUID
	if dto.StatusUpdatedBy != nil {
		by, byErr := kernel.UUIDFromBytes((*dto.StatusUpdatedBy)[:])
		if byErr != nil {
			return nil, byErr
		}
		updatedBy = &by
	}

	return order.RestoreOrder(id, clientID, departmentID, dto.Title, status,
		dto.StatusUpdatedAt.UTC(), updatedBy, dto.Version, dto.CreatedAt.UTC())
}

func optionalBytes(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}
