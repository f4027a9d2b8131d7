package service

import (
	"context"
	"fmt"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemDTO struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	UnitOfMeasure string `json:"unit_of_measure"`
	DefaultPrice  string `json:"default_price"`
}

// CatalogService manages the item catalog consumed by requests and purchases
type CatalogService interface {
	Create(ctx context.Context, actor Actor, req ItemDTO) (*model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context, page, limit int) ([]model.Item, int64, error)
	Update(ctx context.Context, actor Actor, id string, req ItemDTO) (*model.Item, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type catalogService struct {
	repo repository.ItemRepository
}

func NewCatalogService(repo repository.ItemRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) apply(item *model.Item, req ItemDTO) error {
	item.Code = req.Code
	item.Name = req.Name
	if req.UnitOfMeasure != "" {
		item.UnitOfMeasure = req.UnitOfMeasure
	}
	if req.DefaultPrice != "" {
		price, err := decimal.NewFromString(req.DefaultPrice)
		if err != nil || price.IsNegative() {
			return validationf("default_price", "expected a non-negative decimal price")
		}
		item.DefaultPrice = price
	}
	return nil
}

func (s *catalogService) Create(ctx context.Context, actor Actor, req ItemDTO) (*model.Item, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: the catalog is managed by warehouse-capable roles", ErrPermission)
	}

	item := &model.Item{UnitOfMeasure: "un"}
	if err := s.apply(item, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*model.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid item id")
	}
	return s.repo.FindByID(ctx, itemID)
}

func (s *catalogService) List(ctx context.Context, page, limit int) ([]model.Item, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *catalogService) Update(ctx context.Context, actor Actor, id string, req ItemDTO) (*model.Item, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: the catalog is managed by warehouse-capable roles", ErrPermission)
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid item id")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(item, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

func (s *catalogService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return fmt.Errorf("%w: catalog deletion is restricted to admins and managers", ErrPermission)
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return validationf("id", "invalid item id")
	}
	return s.repo.Delete(ctx, itemID)
}
