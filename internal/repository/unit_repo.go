package repository

import (
	"context"

	"requisition-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	List(ctx context.Context, onlyCD bool, page, limit int) ([]model.Unit, int64, error)
	Update(ctx context.Context, unit *model.Unit) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type unitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) Create(ctx context.Context, unit *model.Unit) error {
	return GetDB(ctx, r.db).Create(unit).Error
}

func (r *unitRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	if err := GetDB(ctx, r.db).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) List(ctx context.Context, onlyCD bool, page, limit int) ([]model.Unit, int64, error) {
	var units []model.Unit
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Unit{})
	if onlyCD {
		query = query.Where("is_cd = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Order("name ASC")
	if onlyCD {
		fetch = fetch.Where("is_cd = ?", true)
	}
	if err := fetch.Offset(offset).Limit(limit).Find(&units).Error; err != nil {
		return nil, 0, err
	}

	return units, total, nil
}

func (r *unitRepository) Update(ctx context.Context, unit *model.Unit) error {
	return GetDB(ctx, r.db).Save(unit).Error
}

func (r *unitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Unit{}, "id = ?", id).Error
}
