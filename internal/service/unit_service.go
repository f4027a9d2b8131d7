package service

import (
	"context"
	"fmt"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
)

type UnitDTO struct {
	Name          string `json:"name" binding:"required"`
	Code          string `json:"code" binding:"required"`
	IsCD          bool   `json:"is_cd"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

type StockUpsertDTO struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

type UnitService interface {
	Create(ctx context.Context, actor Actor, req UnitDTO) (*model.Unit, error)
	Get(ctx context.Context, id string) (*model.Unit, error)
	List(ctx context.Context, onlyCD bool, page, limit int) ([]model.Unit, int64, error)
	Update(ctx context.Context, actor Actor, id string, req UnitDTO) (*model.Unit, error)
	// UpsertStock sets the on-hand quantity of an item at a distribution
	// center. Warehouse operators may only touch their own center.
	UpsertStock(ctx context.Context, actor Actor, unitID string, req StockUpsertDTO) (*model.CDStock, error)
	ListStock(ctx context.Context, actor Actor, unitID string, page, limit int) ([]model.CDStock, int64, error)
}

type unitService struct {
	unitRepo  repository.UnitRepository
	stockRepo repository.StockRepository
	itemRepo  repository.ItemRepository
	audit     *auditor
}

func NewUnitService(
	unitRepo repository.UnitRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	auditRepo repository.AuditRepository,
) UnitService {
	return &unitService{
		unitRepo:  unitRepo,
		stockRepo: stockRepo,
		itemRepo:  itemRepo,
		audit:     newAuditor(auditRepo),
	}
}

func (s *unitService) Create(ctx context.Context, actor Actor, req UnitDTO) (*model.Unit, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return nil, fmt.Errorf("%w: units are managed by admins and managers", ErrPermission)
	}

	unit := &model.Unit{
		Name:          req.Name,
		Code:          req.Code,
		IsCD:          req.IsCD,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreateUnit, unit.ID.String(), unit.Name, nil, unit)
	return unit, nil
}

func (s *unitService) Get(ctx context.Context, id string) (*model.Unit, error) {
	unitID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid unit id")
	}
	return s.unitRepo.FindByID(ctx, unitID)
}

func (s *unitService) List(ctx context.Context, onlyCD bool, page, limit int) ([]model.Unit, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.unitRepo.List(ctx, onlyCD, page, limit)
}

func (s *unitService) Update(ctx context.Context, actor Actor, id string, req UnitDTO) (*model.Unit, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return nil, fmt.Errorf("%w: units are managed by admins and managers", ErrPermission)
	}

	unitID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid unit id")
	}
	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return nil, err
	}

	old := *unit
	unit.Name = req.Name
	unit.Code = req.Code
	unit.IsCD = req.IsCD
	unit.ContactPerson = req.ContactPerson
	unit.Phone = req.Phone
	unit.Email = req.Email
	unit.Address = req.Address

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionUpdateUnit, unit.ID.String(), unit.Name, old, unit)
	return unit, nil
}

func (s *unitService) UpsertStock(ctx context.Context, actor Actor, unitID string, req StockUpsertDTO) (*model.CDStock, error) {
	id, err := uuid.Parse(unitID)
	if err != nil {
		return nil, validationf("unit_id", "invalid unit id")
	}

	if actor.Role == model.RoleWarehouse && (actor.UnitID == nil || *actor.UnitID != id) {
		return nil, fmt.Errorf("%w: stock belongs to another distribution center", ErrPermission)
	}
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: stock is managed by warehouse-capable roles", ErrPermission)
	}

	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, validationf("unit_id", "unit not found")
	}
	if !unit.IsCD {
		return nil, validationf("unit_id", "unit %s is not a distribution center", unit.Code)
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, validationf("item_id", "invalid item id")
	}
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, validationf("item_id", "item not found")
	}
	if req.Quantity < 0 {
		return nil, validationf("quantity", "quantity cannot be negative")
	}

	stock := &model.CDStock{
		UnitID:   id,
		ItemID:   itemID,
		Quantity: req.Quantity,
	}
	if err := s.stockRepo.Upsert(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to upsert stock: %w", err)
	}
	return stock, nil
}

func (s *unitService) ListStock(ctx context.Context, actor Actor, unitID string, page, limit int) ([]model.CDStock, int64, error) {
	id, err := uuid.Parse(unitID)
	if err != nil {
		return nil, 0, validationf("unit_id", "invalid unit id")
	}
	if actor.Role == model.RoleWarehouse && (actor.UnitID == nil || *actor.UnitID != id) {
		return nil, 0, fmt.Errorf("%w: stock belongs to another distribution center", ErrPermission)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.stockRepo.ListByUnit(ctx, id, page, limit)
}
