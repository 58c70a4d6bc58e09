package historyrepo

import (
	"context"
	"iter"

	"orderflow/internal/core/domain/model/history"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormStatusHistoryRepository implements ports.StatusHistoryRepository.
// It only ever inserts; rows are never updated or deleted.
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

func (r *GormStatusHistoryRepository) Append(ctx context.Context, record *history.Record) (*history.Record, error) {
	if record == nil {
		return nil, errs.NewValueIsRequiredError("record")
	}

	dto := fromDomain(record)
	if err := r.db.WithContext(ctx).Omit("Seq").Create(&dto).Error; err != nil {
		return nil, errs.NewStorageError("append status history", err)
	}
	return record, nil
}

// HistoryFor queries the order's records on every iteration, newest first.
func (r *GormStatusHistoryRepository) HistoryFor(ctx context.Context, orderID kernel.UUID) iter.Seq2[*history.Record, error] {
	return func(yield func(*history.Record, error) bool) {
		var dtos []RecordDTO
		err := r.db.WithContext(ctx).
			Where("order_id = ?", orderID.Bytes()).
			Order("created_at DESC").
			Order("seq DESC").
			Find(&dtos).Error
		if err != nil {
			yield(nil, errs.NewStorageError("read status history", err))
			return
		}

		for _, dto := range dtos {
			record, convErr := toDomain(dto)
			if convErr != nil {
				yield(nil, convErr)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}
