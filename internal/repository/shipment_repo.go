package repository

import (
	"context"

	"requisition-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentRepository interface {
	Create(ctx context.Context, leg *model.ShipmentLeg) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShipmentLeg, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]model.ShipmentLeg, error)
	Save(ctx context.Context, leg *model.ShipmentLeg) error
}

type shipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) Create(ctx context.Context, leg *model.ShipmentLeg) error {
	return GetDB(ctx, r.db).Create(leg).Error
}

func (r *shipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ShipmentLeg, error) {
	var leg model.ShipmentLeg
	if err := GetDB(ctx, r.db).First(&leg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &leg, nil
}

func (r *shipmentRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]model.ShipmentLeg, error) {
	var legs []model.ShipmentLeg
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&legs).Error; err != nil {
		return nil, err
	}
	return legs, nil
}

func (r *shipmentRepository) Save(ctx context.Context, leg *model.ShipmentLeg) error {
	return GetDB(ctx, r.db).Save(leg).Error
}
