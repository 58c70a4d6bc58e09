// Package userrepo reads principals from the users table.
package userrepo

import (
	"context"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDTO is the part of a user account the workflow needs.
type UserDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Role         string     `gorm:"size:32;index;not null"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index"`
}

func (UserDTO) TableName() string {
	return "users"
}

// GormUserDirectory implements ports.UserDirectory.
type GormUserDirectory struct {
	db *gorm.DB
}

func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// Save inserts or replaces the user row of a.
func (d *GormUserDirectory) Save(ctx context.Context, a actor.Actor) error {
	if _, err := actor.NewActor(a.ID, a.Role, a.DepartmentID); err != nil {
		return err
	}

	dto := UserDTO{ID: a.ID.Bytes(), Role: a.Role.String()}
	if a.DepartmentID != nil {
		raw := a.DepartmentID.Bytes()
		dto.DepartmentID = &raw
	}
	if err := d.db.WithContext(ctx).Save(&dto).Error; err != nil {
		return errs.NewStorageError("save user", err)
	}
	return nil
}

// Administrators returns admin identifiers ordered by id.
func (d *GormUserDirectory) Administrators(ctx context.Context) ([]kernel.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).
		Model(&UserDTO{}).
		Where("role = ?", actor.RoleAdmin.String()).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errs.NewStorageError("list administrators", err)
	}

	admins := make([]kernel.UUID, 0, len(ids))
	for _, id := range ids {
		u, convErr := kernel.UUIDFromBytes(id[:])
		if convErr != nil {
			return nil, convErr
		}
		admins = append(admins, u)
	}
	return admins, nil
}
