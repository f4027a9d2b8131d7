package service

import (
	"context"
	"fmt"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type PurchaseItemInput struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type CreatePurchaseDTO struct {
	CDUnitID   string              `json:"cd_unit_id" binding:"required"`
	SupplierID string              `json:"supplier_id"`
	Notes      string              `json:"notes"`
	Items      []PurchaseItemInput `json:"items" binding:"required,min=1,dive"`
}

type UpdatePurchaseDTO struct {
	SupplierID string  `json:"supplier_id"`
	TotalValue string  `json:"total_value"`
	Notes      *string `json:"notes"`
}

type PurchaseService interface {
	Create(ctx context.Context, actor Actor, req CreatePurchaseDTO) (*model.Purchase, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Purchase, error)
	List(ctx context.Context, actor Actor, status string, page, limit int) ([]model.Purchase, int64, error)
	Update(ctx context.Context, actor Actor, id string, req UpdatePurchaseDTO) (*model.Purchase, error)
	// UpdateStatus moves the purchase along its own state machine. When the
	// last open purchase of a request finalizes, the request drops back
	// from approved_pending_purchase to approved.
	UpdateStatus(ctx context.Context, actor Actor, id string, status model.PurchaseStatus) (*model.Purchase, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	requestRepo  repository.RequestRepository
	supplierRepo repository.SupplierRepository
	unitRepo     repository.UnitRepository
	txManager    repository.TransactionManager
	audit        *auditor
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	requestRepo repository.RequestRepository,
	supplierRepo repository.SupplierRepository,
	unitRepo repository.UnitRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		requestRepo:  requestRepo,
		supplierRepo: supplierRepo,
		unitRepo:     unitRepo,
		txManager:    txManager,
		audit:        newAuditor(auditRepo),
	}
}

// purchaseStatusOrder defines the legal forward moves for a purchase.
var purchaseStatusOrder = map[model.PurchaseStatus][]model.PurchaseStatus{
	model.PurchaseStatusOrderPlaced:       {model.PurchaseStatusSupplierConfirmed, model.PurchaseStatusCanceled},
	model.PurchaseStatusSupplierConfirmed: {model.PurchaseStatusInTransit, model.PurchaseStatusCanceled},
	model.PurchaseStatusInTransit:         {model.PurchaseStatusFinalized},
}

func (s *purchaseService) Create(ctx context.Context, actor Actor, req CreatePurchaseDTO) (*model.Purchase, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: purchases require a warehouse-capable role", ErrPermission)
	}

	cdUnitID, err := uuid.Parse(req.CDUnitID)
	if err != nil {
		return nil, validationf("cd_unit_id", "invalid unit id")
	}
	cdUnit, err := s.unitRepo.FindByID(ctx, cdUnitID)
	if err != nil {
		return nil, validationf("cd_unit_id", "distribution center not found")
	}
	if !cdUnit.IsCD {
		return nil, validationf("cd_unit_id", "unit %s is not a distribution center", cdUnit.Code)
	}

	purchase := &model.Purchase{
		CDUnitID: cdUnitID,
		Status:   model.PurchaseStatusOrderPlaced,
		Notes:    req.Notes,
	}

	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return nil, validationf("supplier_id", "invalid supplier id")
		}
		if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
			return nil, validationf("supplier_id", "supplier not found")
		}
		purchase.SupplierID = &supplierID
	}

	for _, in := range req.Items {
		itemID, err := uuid.Parse(in.ItemID)
		if err != nil {
			return nil, validationf("items", "invalid item id %q", in.ItemID)
		}
		purchase.Items = append(purchase.Items, model.PurchaseItem{
			ItemID:   itemID,
			Quantity: in.Quantity,
		})
	}

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreatePurchase, purchase.ID.String(), "", nil, purchase)
	return purchase, nil
}

func (s *purchaseService) Get(ctx context.Context, actor Actor, id string) (*model.Purchase, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid purchase id")
	}
	return s.purchaseRepo.FindByID(ctx, purchaseID)
}

func (s *purchaseService) List(ctx context.Context, actor Actor, status string, page, limit int) ([]model.Purchase, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.purchaseRepo.List(ctx, model.PurchaseStatus(status), page, limit)
}

func (s *purchaseService) Update(ctx context.Context, actor Actor, id string, req UpdatePurchaseDTO) (*model.Purchase, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: purchases require a warehouse-capable role", ErrPermission)
	}

	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid purchase id")
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Status.Terminal() {
		return nil, fmt.Errorf("%w: purchase is %s", ErrRequestLocked, purchase.Status)
	}

	if req.SupplierID != "" {
		supplierID, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return nil, validationf("supplier_id", "invalid supplier id")
		}
		if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
			return nil, validationf("supplier_id", "supplier not found")
		}
		purchase.SupplierID = &supplierID
	}
	if req.TotalValue != "" {
		total, err := decimal.NewFromString(req.TotalValue)
		if err != nil || total.IsNegative() {
			return nil, validationf("total_value", "expected a non-negative decimal amount")
		}
		purchase.TotalValue = total
	}
	if req.Notes != nil {
		purchase.Notes = *req.Notes
	}

	if err := s.purchaseRepo.Save(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionUpdatePurchase, purchase.ID.String(), "", nil, req)
	return purchase, nil
}

func (s *purchaseService) UpdateStatus(ctx context.Context, actor Actor, id string, status model.PurchaseStatus) (*model.Purchase, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: purchases require a warehouse-capable role", ErrPermission)
	}

	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid purchase id")
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	legal := false
	for _, next := range purchaseStatusOrder[purchase.Status] {
		if next == status {
			legal = true
			break
		}
	}
	if !legal {
		return nil, fmt.Errorf("%w: purchase cannot move from %s to %s", ErrInvalidTransition, purchase.Status, status)
	}

	oldStatus := purchase.Status
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.purchaseRepo.UpdateStatus(txCtx, purchase.ID, status); err != nil {
			return fmt.Errorf("failed to update purchase status: %w", err)
		}
		purchase.Status = status

		// Closing the last open purchase lifts the purchase gap: the
		// request returns to approved so fulfillment can continue. The
		// reconciler relies on this down-transition having happened.
		if status.Terminal() && purchase.RequestID != nil {
			open, err := s.purchaseRepo.CountOpenByRequestID(txCtx, *purchase.RequestID)
			if err != nil {
				return fmt.Errorf("failed to count open purchases: %w", err)
			}
			if open == 0 {
				request, err := s.requestRepo.FindByID(txCtx, *purchase.RequestID)
				if err != nil {
					return fmt.Errorf("failed to load linked request: %w", err)
				}
				if request.Status == model.RequestStatusPendingPurchase {
					if err := s.requestRepo.UpdateStatus(txCtx, request.ID, model.RequestStatusApproved); err != nil {
						return fmt.Errorf("failed to reset request status: %w", err)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionUpdatePurchase, purchase.ID.String(), "",
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": status})
	return purchase, nil
}
