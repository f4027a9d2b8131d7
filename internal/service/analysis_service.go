package service

import (
	"context"
	"fmt"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemAvailability is the per-item outcome of a stock analysis. Stock is nil
// when the actor is not allowed to see figures for the request's
// distribution center; that sentinel is never folded into purchase-gap math.
type ItemAvailability struct {
	RequestItemID uuid.UUID `json:"request_item_id"`
	ItemID        uuid.UUID `json:"item_id"`
	Requested     int       `json:"quantity_requested"`
	Stock         *int      `json:"cd_stock_available"`
	NeedsPurchase bool      `json:"needs_purchase"`
}

type AnalysisService interface {
	// Analyze snapshots CD stock per item, defaults approved quantities,
	// flags purchase gaps, and moves the request to analyzing.
	Analyze(ctx context.Context, actor Actor, requestID string) ([]ItemAvailability, error)
	// SetItemPurchaseFlag lets a human override the needs_purchase flag;
	// later analyses keep the override.
	SetItemPurchaseFlag(ctx context.Context, actor Actor, requestID, requestItemID string, needsPurchase bool) error
	// CreatePurchaseFromRequest turns the flagged items into one purchase
	// order owned by the request's distribution center.
	CreatePurchaseFromRequest(ctx context.Context, actor Actor, requestID string) (*model.Purchase, error)
}

type analysisService struct {
	requestRepo  repository.RequestRepository
	purchaseRepo repository.PurchaseRepository
	stockRepo    repository.StockRepository
	itemRepo     repository.ItemRepository
	txManager    repository.TransactionManager
	audit        *auditor
}

func NewAnalysisService(
	requestRepo repository.RequestRepository,
	purchaseRepo repository.PurchaseRepository,
	stockRepo repository.StockRepository,
	itemRepo repository.ItemRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
) AnalysisService {
	return &analysisService{
		requestRepo:  requestRepo,
		purchaseRepo: purchaseRepo,
		stockRepo:    stockRepo,
		itemRepo:     itemRepo,
		txManager:    txManager,
		audit:        newAuditor(auditRepo),
	}
}

// stockVisible reports whether the actor may see stock figures for the
// request's distribution center. Warehouse operators are bound to exactly
// one center; for any other center they get the not-applicable sentinel.
func stockVisible(actor Actor, cdUnitID uuid.UUID) bool {
	if actor.Role == model.RoleWarehouse {
		return actor.UnitID != nil && *actor.UnitID == cdUnitID
	}
	return actor.HasRole(model.RoleAdmin, model.RoleManager)
}

func (s *analysisService) Analyze(ctx context.Context, actor Actor, requestID string) ([]ItemAvailability, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, validationf("id", "invalid request id")
	}

	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.Status != model.RequestStatusRequested && request.Status != model.RequestStatusAnalyzing {
		return nil, fmt.Errorf("%w: cannot analyze a request in status %s", ErrInvalidTransition, request.Status)
	}
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: analysis requires a warehouse-capable role", ErrPermission)
	}

	visible := stockVisible(actor, request.CDUnitID)

	results := make([]ItemAvailability, 0, len(request.Items))
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range request.Items {
			item := &request.Items[i]

			if item.QuantityApproved == nil {
				qty := item.QuantityRequested
				item.QuantityApproved = &qty
			}

			if visible {
				qty, err := s.stockRepo.Quantity(txCtx, request.CDUnitID, item.ItemID)
				if err != nil {
					return fmt.Errorf("failed to read stock for item %s: %w", item.ItemID, err)
				}
				stock := qty
				item.CDStockAvailable = &stock
				// Human overrides win over the automatic gap check.
				if !item.NeedsPurchaseManual {
					item.NeedsPurchase = stock < item.QuantityRequested
				}
			} else {
				// Not-applicable sentinel: no snapshot, no flag change.
				item.CDStockAvailable = nil
			}

			if err := s.requestRepo.SaveItem(txCtx, item); err != nil {
				return fmt.Errorf("failed to save analyzed item: %w", err)
			}

			results = append(results, ItemAvailability{
				RequestItemID: item.ID,
				ItemID:        item.ItemID,
				Requested:     item.QuantityRequested,
				Stock:         item.CDStockAvailable,
				NeedsPurchase: item.NeedsPurchase,
			})
		}

		if request.Status != model.RequestStatusAnalyzing {
			request.Status = model.RequestStatusAnalyzing
			if err := s.requestRepo.UpdateStatus(txCtx, request.ID, model.RequestStatusAnalyzing); err != nil {
				return fmt.Errorf("failed to move request to analyzing: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionAnalyzeRequest, request.ID.String(), "", nil,
		map[string]interface{}{"items": len(results), "stock_visible": visible})

	return results, nil
}

func (s *analysisService) SetItemPurchaseFlag(ctx context.Context, actor Actor, requestID, requestItemID string, needsPurchase bool) error {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return fmt.Errorf("%w: purchase flags require a warehouse-capable role", ErrPermission)
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return validationf("id", "invalid request id")
	}
	itemID, err := uuid.Parse(requestItemID)
	if err != nil {
		return validationf("request_item_id", "invalid item id")
	}

	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if request.Status.Terminal() || request.Status == model.RequestStatusErrorOnRequest {
		return fmt.Errorf("%w: status is %s", ErrRequestLocked, request.Status)
	}

	item, err := s.requestRepo.FindItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.RequestID != request.ID {
		return validationf("request_item_id", "item does not belong to this request")
	}

	item.NeedsPurchase = needsPurchase
	item.NeedsPurchaseManual = true
	return s.requestRepo.SaveItem(ctx, item)
}

func (s *analysisService) CreatePurchaseFromRequest(ctx context.Context, actor Actor, requestID string) (*model.Purchase, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: purchases require a warehouse-capable role", ErrPermission)
	}

	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, validationf("id", "invalid request id")
	}

	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reqID := request.ID
	purchase := &model.Purchase{
		RequestID: &reqID,
		CDUnitID:  request.CDUnitID,
		Status:    model.PurchaseStatusOrderPlaced,
	}

	total := decimal.Zero
	for _, item := range request.Items {
		if !item.NeedsPurchase {
			continue
		}
		// Purchasing replenishes full demand, not the shortfall: the stock
		// check evaluates this request in isolation.
		purchase.Items = append(purchase.Items, model.PurchaseItem{
			ItemID:   item.ItemID,
			Quantity: item.QuantityRequested,
		})
		if catalogItem, err := s.itemRepo.FindByID(ctx, item.ItemID); err == nil {
			total = total.Add(catalogItem.DefaultPrice.Mul(decimal.NewFromInt(int64(item.QuantityRequested))))
		}
	}
	if len(purchase.Items) == 0 {
		return nil, validationf("items", "no items are flagged for purchase")
	}
	purchase.TotalValue = total

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreatePurchase, purchase.ID.String(), "",
		nil, map[string]interface{}{"request_id": request.ID, "items": len(purchase.Items)})

	return purchase, nil
}
