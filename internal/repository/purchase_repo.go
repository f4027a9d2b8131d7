package repository

import (
	"context"

	"requisition-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]model.Purchase, error)
	CountOpenByRequestID(ctx context.Context, requestID uuid.UUID) (int64, error)
	List(ctx context.Context, status model.PurchaseStatus, page, limit int) ([]model.Purchase, int64, error)
	Save(ctx context.Context, purchase *model.Purchase) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PurchaseStatus) error
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Item").
		Preload("Supplier").
		Preload("CDUnit").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]model.Purchase, error) {
	var purchases []model.Purchase
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// CountOpenByRequestID counts linked purchases still blocking the request
// (status not yet terminal).
func (r *purchaseRepository) CountOpenByRequestID(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Purchase{}).
		Where("request_id = ? AND status NOT IN ?", requestID,
			[]model.PurchaseStatus{model.PurchaseStatusFinalized, model.PurchaseStatusCanceled}).
		Count(&count).Error
	return count, err
}

func (r *purchaseRepository) List(ctx context.Context, status model.PurchaseStatus, page, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Purchase{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Items").Preload("Items.Item").Preload("Supplier").Preload("CDUnit")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

func (r *purchaseRepository) Save(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Save(purchase).Error
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PurchaseStatus) error {
	return GetDB(ctx, r.db).Model(&model.Purchase{}).Where("id = ?", id).Update("status", status).Error
}
