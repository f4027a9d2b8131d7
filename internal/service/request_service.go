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

type RequestItemInput struct {
	ItemID            string `json:"item_id" binding:"required"`
	QuantityRequested int    `json:"quantity_requested" binding:"required,gt=0"`
	Notes             string `json:"notes"`
}

type CreateRequestDTO struct {
	RequestingUnitID string             `json:"requesting_unit_id" binding:"required"`
	CDUnitID         string             `json:"cd_unit_id" binding:"required"`
	Priority         string             `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Notes            string             `json:"notes"`
	Items            []RequestItemInput `json:"items" binding:"required,min=1,dive"`
}

type UpdateRequestDTO struct {
	Priority string             `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Notes    *string            `json:"notes"`
	Items    []RequestItemInput `json:"items" binding:"omitempty,min=1,dive"`
}

type ListRequestsFilter struct {
	Status   string
	UnitID   string
	CDUnitID string
	Priority string
	Page     int
	Limit    int
}

type RequestService interface {
	Create(ctx context.Context, actor Actor, req CreateRequestDTO) (*model.Request, error)
	List(ctx context.Context, actor Actor, filter ListRequestsFilter) ([]model.Request, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Request, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateRequestDTO) (*model.Request, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type requestService struct {
	requestRepo repository.RequestRepository
	unitRepo    repository.UnitRepository
	itemRepo    repository.ItemRepository
	reconciler  *Reconciler
	txManager   repository.TransactionManager
	audit       *auditor
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	unitRepo repository.UnitRepository,
	itemRepo repository.ItemRepository,
	reconciler *Reconciler,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		unitRepo:    unitRepo,
		itemRepo:    itemRepo,
		reconciler:  reconciler,
		txManager:   txManager,
		audit:       newAuditor(auditRepo),
	}
}

func (s *requestService) Create(ctx context.Context, actor Actor, req CreateRequestDTO) (*model.Request, error) {
	if len(req.Items) == 0 {
		return nil, validationf("items", "a request needs at least one item")
	}

	requestingUnitID, err := uuid.Parse(req.RequestingUnitID)
	if err != nil {
		return nil, validationf("requesting_unit_id", "invalid unit id")
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

	if _, err := s.unitRepo.FindByID(ctx, requestingUnitID); err != nil {
		return nil, validationf("requesting_unit_id", "requesting unit not found")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	request := &model.Request{
		RequestingUnitID: requestingUnitID,
		CDUnitID:         cdUnitID,
		RequesterID:      actor.ID,
		Priority:         priority,
		Status:           model.RequestStatusRequested,
		Notes:            req.Notes,
	}

	total := decimal.Zero
	for _, in := range req.Items {
		if in.QuantityRequested <= 0 {
			return nil, validationf("items", "quantity must be positive")
		}
		itemID, err := uuid.Parse(in.ItemID)
		if err != nil {
			return nil, validationf("items", "invalid item id %q", in.ItemID)
		}
		catalogItem, err := s.itemRepo.FindByID(ctx, itemID)
		if err != nil {
			return nil, validationf("items", "item %s not found", in.ItemID)
		}
		request.Items = append(request.Items, model.RequestItem{
			ItemID:            itemID,
			QuantityRequested: in.QuantityRequested,
			Notes:             in.Notes,
		})
		total = total.Add(catalogItem.DefaultPrice.Mul(decimal.NewFromInt(int64(in.QuantityRequested))))
	}
	request.TotalEstimatedCost = total

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreateRequest, request.ID.String(), "", nil, request)

	return s.requestRepo.FindByIDWithRelations(ctx, request.ID)
}

// List fetches a page of requests and runs the reconciler over it before
// returning, so stale statuses are corrected in the same response.
func (s *requestService) List(ctx context.Context, actor Actor, filter ListRequestsFilter) ([]model.Request, int64, error) {
	repoFilter := repository.RequestFilter{
		Status:   model.RequestStatus(filter.Status),
		Priority: filter.Priority,
	}
	if filter.UnitID != "" {
		id, err := uuid.Parse(filter.UnitID)
		if err != nil {
			return nil, 0, validationf("unit_id", "invalid unit id")
		}
		repoFilter.RequestingUnitID = &id
	}
	if filter.CDUnitID != "" {
		id, err := uuid.Parse(filter.CDUnitID)
		if err != nil {
			return nil, 0, validationf("cd_unit_id", "invalid unit id")
		}
		repoFilter.CDUnitID = &id
	}

	// Unit admins only see their own unit's requests; warehouse operators
	// only their center's.
	if actor.Role == model.RoleUnitAdmin && actor.UnitID != nil {
		repoFilter.RequestingUnitID = actor.UnitID
	}
	if actor.Role == model.RoleWarehouse && actor.UnitID != nil {
		repoFilter.CDUnitID = actor.UnitID
	}

	page, limit := filter.Page, filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	requests, total, err := s.requestRepo.List(ctx, repoFilter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}

	s.reconciler.ReconcileAll(ctx, requests)

	return requests, total, nil
}

func (s *requestService) Get(ctx context.Context, actor Actor, id string) (*model.Request, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid request id")
	}

	request, err := s.requestRepo.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !actor.BoundTo(request.RequestingUnitID) && !actor.BoundTo(request.CDUnitID) {
		return nil, fmt.Errorf("%w: request belongs to another unit", ErrPermission)
	}

	s.reconciler.Reconcile(ctx, request)

	return request, nil
}

func (s *requestService) Update(ctx context.Context, actor Actor, id string, req UpdateRequestDTO) (*model.Request, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationf("id", "invalid request id")
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if !ItemsEditable(request.Status) {
		return nil, fmt.Errorf("%w: status is %s", ErrRequestLocked, request.Status)
	}
	if !actor.BoundTo(request.RequestingUnitID) && !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: request belongs to another unit", ErrPermission)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Priority != "" {
			request.Priority = req.Priority
		}
		if req.Notes != nil {
			request.Notes = *req.Notes
		}

		if len(req.Items) > 0 {
			total := decimal.Zero
			items := make([]model.RequestItem, 0, len(req.Items))
			for _, in := range req.Items {
				if in.QuantityRequested <= 0 {
					return validationf("items", "quantity must be positive")
				}
				itemID, err := uuid.Parse(in.ItemID)
				if err != nil {
					return validationf("items", "invalid item id %q", in.ItemID)
				}
				catalogItem, err := s.itemRepo.FindByID(txCtx, itemID)
				if err != nil {
					return validationf("items", "item %s not found", in.ItemID)
				}
				items = append(items, model.RequestItem{
					RequestID:         request.ID,
					ItemID:            itemID,
					QuantityRequested: in.QuantityRequested,
					Notes:             in.Notes,
				})
				total = total.Add(catalogItem.DefaultPrice.Mul(decimal.NewFromInt(int64(in.QuantityRequested))))
			}

			// Replace the item set wholesale; per-item tweaks go
			// through the analysis flow instead.
			if err := s.requestRepo.DeleteItems(txCtx, request.ID); err != nil {
				return fmt.Errorf("failed to replace request items: %w", err)
			}
			request.Items = items
			request.TotalEstimatedCost = total
		}

		return s.requestRepo.Save(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionUpdateRequest, request.ID.String(), "", nil, req)

	return s.requestRepo.FindByIDWithRelations(ctx, requestID)
}

func (s *requestService) Delete(ctx context.Context, actor Actor, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return validationf("id", "invalid request id")
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}

	if request.Status != model.RequestStatusRequested {
		return fmt.Errorf("%w: only requests still in %s can be deleted", ErrRequestLocked, model.RequestStatusRequested)
	}
	if !actor.HasRole(model.RoleAdmin, model.RoleManager) && !actor.BoundTo(request.RequestingUnitID) {
		return fmt.Errorf("%w: request belongs to another unit", ErrPermission)
	}

	if err := s.requestRepo.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionDeleteRequest, requestID.String(), "", request, nil)
	return nil
}
