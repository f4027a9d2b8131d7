package service

import (
	"context"
	"fmt"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
)

type SupplierDTO struct {
	Name          string `json:"name" binding:"required"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

type SupplierService interface {
	Create(ctx context.Context, actor Actor, req SupplierDTO) (*model.Supplier, error)
	Get(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, activeOnly bool, page, limit int) ([]model.Supplier, int64, error)
	Update(ctx context.Context, actor Actor, id string, req SupplierDTO) (*model.Supplier, error)
	Deactivate(ctx context.Context, actor Actor, id string) error
}

type supplierService struct {
	repo  repository.SupplierRepository
	audit *auditor
}

func NewSupplierService(repo repository.SupplierRepository, auditRepo repository.AuditRepository) SupplierService {
	return &supplierService{repo: repo, audit: newAuditor(auditRepo)}
}

func (s *supplierService) Create(ctx context.Context, actor Actor, req SupplierDTO) (*model.Supplier, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return nil, fmt.Errorf("%w: suppliers are managed by admins and managers", ErrPermission)
	}

	supplier := &model.Supplier{
		Name:          req.Name,
		TaxCode:       req.TaxCode,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreateSupplier, supplier.ID.String(), supplier.Name, nil, supplier)
	return supplier, nil
}

func (s *supplierService) Get(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid supplier id")
	}
	return s.repo.FindByID(ctx, supplierID)
}

func (s *supplierService) List(ctx context.Context, activeOnly bool, page, limit int) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, activeOnly, page, limit)
}

func (s *supplierService) Update(ctx context.Context, actor Actor, id string, req SupplierDTO) (*model.Supplier, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return nil, fmt.Errorf("%w: suppliers are managed by admins and managers", ErrPermission)
	}

	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid supplier id")
	}
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	old := *supplier
	supplier.Name = req.Name
	supplier.TaxCode = req.TaxCode
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionUpdateSupplier, supplier.ID.String(), supplier.Name, old, supplier)
	return supplier, nil
}

func (s *supplierService) Deactivate(ctx context.Context, actor Actor, id string) error {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return fmt.Errorf("%w: suppliers are managed by admins and managers", ErrPermission)
	}

	supplierID, err := uuid.Parse(id)
	if err != nil {
		return validationf("id", "invalid supplier id")
	}
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		return err
	}

	supplier.IsActive = false
	if err := s.repo.Update(ctx, supplier); err != nil {
		return fmt.Errorf("failed to deactivate supplier: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionDeleteSupplier, supplier.ID.String(), supplier.Name, nil, nil)
	return nil
}
