package repository

import (
	"context"

	"requisition-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	// Quantity returns the on-hand quantity of an item at a distribution
	// center. A missing row means zero stock, not an error.
	Quantity(ctx context.Context, unitID, itemID uuid.UUID) (int, error)
	Upsert(ctx context.Context, stock *model.CDStock) error
	ListByUnit(ctx context.Context, unitID uuid.UUID, page, limit int) ([]model.CDStock, int64, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Quantity(ctx context.Context, unitID, itemID uuid.UUID) (int, error) {
	var stock model.CDStock
	err := GetDB(ctx, r.db).
		Where("unit_id = ? AND item_id = ?", unitID, itemID).
		First(&stock).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return stock.Quantity, nil
}

func (r *stockRepository) Upsert(ctx context.Context, stock *model.CDStock) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unit_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(stock).Error
}

func (r *stockRepository) ListByUnit(ctx context.Context, unitID uuid.UUID, page, limit int) ([]model.CDStock, int64, error) {
	var stocks []model.CDStock
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CDStock{}).Where("unit_id = ?", unitID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Item").
		Where("unit_id = ?", unitID).
		Offset(offset).Limit(limit).
		Find(&stocks).Error; err != nil {
		return nil, 0, err
	}

	return stocks, total, nil
}
