package repository

import (
	"context"

	"requisition-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows request listings
type RequestFilter struct {
	Status           model.RequestStatus
	RequestingUnitID *uuid.UUID
	CDUnitID         *uuid.UUID
	Priority         string
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter, page, limit int) ([]model.Request, int64, error)
	Save(ctx context.Context, req *model.Request) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// ConsumeBudget conditionally flips budget_consumed and moves the request
	// to its final state. Returns the number of rows affected so the caller
	// can detect a lost race on budget_consumed.
	ConsumeBudget(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteItems(ctx context.Context, requestID uuid.UUID) error
	SaveItem(ctx context.Context, item *model.RequestItem) error
	FindItem(ctx context.Context, itemID uuid.UUID) (*model.RequestItem, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).Preload("Items").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Item").
		Preload("RequestingUnit").
		Preload("CDUnit").
		Preload("Requester").
		Preload("Approver").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter, page, limit int) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.RequestingUnitID != nil {
			q = q.Where("requesting_unit_id = ?", *filter.RequestingUnitID)
		}
		if filter.CDUnitID != nil {
			q = q.Where("cd_unit_id = ?", *filter.CDUnitID)
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		return q
	}

	if err := apply(db.Model(&model.Request{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.
		Preload("Items").
		Preload("Items.Item").
		Preload("RequestingUnit").
		Preload("CDUnit").
		Preload("Requester")).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) Save(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RequestStatus) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).Where("id = ?", id).Update("status", status).Error
}

func (r *requestRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).Where("id = ?", id).Updates(fields).Error
}

func (r *requestRepository) ConsumeBudget(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ? AND budget_consumed = ?", id, false).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("request_id = ?", id).Delete(&model.RequestItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Request{}, "id = ?", id).Error
}

func (r *requestRepository) DeleteItems(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.RequestItem{}).Error
}

func (r *requestRepository) SaveItem(ctx context.Context, item *model.RequestItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *requestRepository) FindItem(ctx context.Context, itemID uuid.UUID) (*model.RequestItem, error) {
	var item model.RequestItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
