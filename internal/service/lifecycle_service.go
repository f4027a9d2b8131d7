package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// ItemPriceInput sets the unit price for one request item during a
// financial approval.
type ItemPriceInput struct {
	RequestItemID string `json:"request_item_id" binding:"required"`
	UnitPrice     string `json:"unit_price" binding:"required"`
}

type ApproveRequestDTO struct {
	// Optional quantity adjustments, keyed by request item id.
	Quantities map[string]int `json:"quantities"`
	// When present, approval also fixes financial values; every item of the
	// request must then carry a positive unit price.
	Prices []ItemPriceInput `json:"prices"`
}

type ItemErrorInput struct {
	RequestItemID    string `json:"request_item_id" binding:"required"`
	ErrorDescription string `json:"error_description" binding:"required"`
}

type LifecycleService interface {
	Approve(ctx context.Context, actor Actor, requestID string, req ApproveRequestDTO) (*model.Request, error)
	Reject(ctx context.Context, actor Actor, requestID, reason string) (*model.Request, error)
	Cancel(ctx context.Context, actor Actor, requestID string) (*model.Request, error)
	MarkError(ctx context.Context, actor Actor, requestID string, items []ItemErrorInput) (*model.Request, error)
	ResolveError(ctx context.Context, actor Actor, requestID string) (*model.Request, error)
	StartPreparing(ctx context.Context, actor Actor, requestID string) (*model.Request, error)
	Finalize(ctx context.Context, actor Actor, requestID string) (*model.Request, error)
	SetItemPrice(ctx context.Context, actor Actor, requestID, requestItemID, price string) (*model.Request, error)
}

type lifecycleService struct {
	requestRepo  repository.RequestRepository
	purchaseRepo repository.PurchaseRepository
	budgetRepo   repository.BudgetRepository
	budgets      BudgetService
	txManager    repository.TransactionManager
	audit        *auditor
	notifier     Notifier
}

func NewLifecycleService(
	requestRepo repository.RequestRepository,
	purchaseRepo repository.PurchaseRepository,
	budgetRepo repository.BudgetRepository,
	budgets BudgetService,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) LifecycleService {
	return &lifecycleService{
		requestRepo:  requestRepo,
		purchaseRepo: purchaseRepo,
		budgetRepo:   budgetRepo,
		budgets:      budgets,
		txManager:    txManager,
		audit:        newAuditor(auditRepo),
		notifier:     notifier,
	}
}

func (s *lifecycleService) load(ctx context.Context, requestID string) (*model.Request, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, validationf("id", "invalid request id")
	}
	return s.requestRepo.FindByID(ctx, id)
}

func (s *lifecycleService) Approve(ctx context.Context, actor Actor, requestID string, req ApproveRequestDTO) (*model.Request, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	next, err := Resolve(actor, request, ActionApprove)
	if err != nil {
		return nil, err
	}

	// Apply quantity adjustments and prices in memory first so validation
	// rejects the whole approval before any write.
	priceByItem := map[string]decimal.Decimal{}
	for _, p := range req.Prices {
		price, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			return nil, validationf("prices", "invalid price %q", p.UnitPrice)
		}
		priceByItem[p.RequestItemID] = price
	}

	settingPrices := len(req.Prices) > 0
	total := decimal.Zero
	for i := range request.Items {
		item := &request.Items[i]
		if qty, ok := req.Quantities[item.ID.String()]; ok {
			if qty < 0 || qty > item.QuantityRequested {
				return nil, validationf("quantities", "approved quantity must be between 0 and the requested %d", item.QuantityRequested)
			}
			item.QuantityApproved = &qty
		}
		if item.QuantityApproved == nil {
			qty := item.QuantityRequested
			item.QuantityApproved = &qty
		}

		if price, ok := priceByItem[item.ID.String()]; ok {
			if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleFinance) {
				return nil, fmt.Errorf("%w: only financial roles may set unit prices", ErrPermission)
			}
			p := price
			item.UnitPrice = &p
		}
		if settingPrices {
			if item.UnitPrice == nil || !item.UnitPrice.IsPositive() {
				return nil, validationf("prices", "item %s needs a positive unit price", item.ID)
			}
			total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(*item.QuantityApproved))))
		}
	}

	if settingPrices {
		// Budget pre-check at approval time. The authoritative guard stays
		// the conditional debit at finalization.
		budget, err := s.budgetRepo.FindActive(ctx, request.RequestingUnitID, time.Now())
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check budget: %w", err)
		}
		if budget != nil && budget.AvailableAmount.LessThan(total) {
			return nil, ErrInsufficientBudget
		}
		request.TotalEstimatedCost = total
	}

	oldStatus := request.Status
	now := time.Now()
	actorID := actor.ID
	request.Status = next
	request.ApprovedBy = &actorID
	request.ApprovedAt = &now

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range request.Items {
			if err := s.requestRepo.SaveItem(txCtx, &request.Items[i]); err != nil {
				return fmt.Errorf("failed to save request item: %w", err)
			}
		}
		return s.requestRepo.Save(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionApproveRequest, request.ID.String(), "",
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": request.Status, "total": request.TotalEstimatedCost.String()})
	notify(s.notifier, "request_approved", request.ID.String(), request.Status)

	return request, nil
}

func (s *lifecycleService) Reject(ctx context.Context, actor Actor, requestID, reason string) (*model.Request, error) {
	if reason == "" {
		return nil, validationf("reason", "a rejection reason is required")
	}

	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	next, err := Resolve(actor, request, ActionReject)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	now := time.Now()
	actorID := actor.ID
	request.Status = next
	request.ApprovedBy = &actorID
	request.ApprovedAt = &now
	request.RejectionReason = reason

	if err := s.requestRepo.Save(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to reject request: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionRejectRequest, request.ID.String(), "",
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": request.Status, "reason": reason})
	notify(s.notifier, "request_rejected", request.ID.String(), request.Status)

	return request, nil
}

func (s *lifecycleService) Cancel(ctx context.Context, actor Actor, requestID string) (*model.Request, error) {
	return s.simpleTransition(ctx, actor, requestID, ActionCancel, model.ActionCancelRequest, "request_canceled")
}

func (s *lifecycleService) StartPreparing(ctx context.Context, actor Actor, requestID string) (*model.Request, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// A purchase gap blocks preparation until every linked purchase closes.
	open, err := s.purchaseRepo.CountOpenByRequestID(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open purchases: %w", err)
	}
	if open > 0 {
		return nil, validationf("status", "%d linked purchases are still open", open)
	}

	return s.transition(ctx, actor, request, ActionStartPreparing, model.ActionUpdateRequest, "request_preparing")
}

func (s *lifecycleService) MarkError(ctx context.Context, actor Actor, requestID string, items []ItemErrorInput) (*model.Request, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	next, err := Resolve(actor, request, ActionMarkError)
	if err != nil {
		return nil, err
	}

	flagged := map[string]string{}
	for _, in := range items {
		flagged[in.RequestItemID] = in.ErrorDescription
	}

	oldStatus := request.Status
	request.Status = next
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range request.Items {
			item := &request.Items[i]
			if desc, ok := flagged[item.ID.String()]; ok {
				item.HasError = true
				item.ErrorDescription = desc
				if err := s.requestRepo.SaveItem(txCtx, item); err != nil {
					return fmt.Errorf("failed to flag item: %w", err)
				}
			}
		}
		return s.requestRepo.Save(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionMarkError, request.ID.String(), "",
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": request.Status, "items": flagged})
	notify(s.notifier, "request_error", request.ID.String(), request.Status)

	return request, nil
}

func (s *lifecycleService) ResolveError(ctx context.Context, actor Actor, requestID string) (*model.Request, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	next, err := Resolve(actor, request, ActionResolveError)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	request.Status = next
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range request.Items {
			item := &request.Items[i]
			if item.HasError {
				item.HasError = false
				item.ErrorDescription = ""
				if err := s.requestRepo.SaveItem(txCtx, item); err != nil {
					return fmt.Errorf("failed to clear item error: %w", err)
				}
			}
		}
		return s.requestRepo.Save(txCtx, request)
	})
	if err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionResolveError, request.ID.String(), "",
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": request.Status})
	notify(s.notifier, "request_error_resolved", request.ID.String(), request.Status)

	return request, nil
}

// Finalize moves a received request to approved_by_unit and debits the
// requesting unit's budget as one unit of work. Re-invocation after the
// budget was consumed fails with ErrBudgetAlreadyConsumed instead of
// double-debiting.
func (s *lifecycleService) Finalize(ctx context.Context, actor Actor, requestID string) (*model.Request, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := Resolve(actor, request, ActionFinalize); err != nil {
		return nil, err
	}
	if request.BudgetConsumed {
		return nil, ErrBudgetAlreadyConsumed
	}

	if err := s.budgets.DebitForFinalize(ctx, actor, request); err != nil {
		return nil, err
	}

	s.audit.record(ctx, actor, model.ActionFinalizeRequest, request.ID.String(), "",
		map[string]interface{}{"status": model.RequestStatusReceived},
		map[string]interface{}{"status": request.Status, "budget_consumed": true})
	notify(s.notifier, "request_finalized", request.ID.String(), request.Status)

	return request, nil
}

// SetItemPrice edits a single item's unit price outside an approval. Only
// financial roles, and only while the request sits in approved.
func (s *lifecycleService) SetItemPrice(ctx context.Context, actor Actor, requestID, requestItemID, price string) (*model.Request, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleFinance) {
		return nil, fmt.Errorf("%w: only financial roles may set unit prices", ErrPermission)
	}

	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestStatusApproved {
		return nil, fmt.Errorf("%w: prices are editable only while approved", ErrRequestLocked)
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil || !parsed.IsPositive() {
		return nil, validationf("unit_price", "expected a positive decimal price")
	}

	itemID, err := uuid.Parse(requestItemID)
	if err != nil {
		return nil, validationf("request_item_id", "invalid item id")
	}

	var target *model.RequestItem
	for i := range request.Items {
		if request.Items[i].ID == itemID {
			target = &request.Items[i]
			break
		}
	}
	if target == nil {
		return nil, validationf("request_item_id", "item does not belong to this request")
	}

	old := target.UnitPrice
	target.UnitPrice = &parsed
	if err := s.requestRepo.SaveItem(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to save unit price: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionUpdateRequest, request.ID.String(), "",
		map[string]interface{}{"item": itemID, "unit_price": old},
		map[string]interface{}{"item": itemID, "unit_price": parsed})

	return request, nil
}

func (s *lifecycleService) simpleTransition(ctx context.Context, actor Actor, requestID string, action Action, auditAction, event string) (*model.Request, error) {
	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, request, action, auditAction, event)
}

func (s *lifecycleService) transition(ctx context.Context, actor Actor, request *model.Request, action Action, auditAction, event string) (*model.Request, error) {
	next, err := Resolve(actor, request, action)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	request.Status = next
	if err := s.requestRepo.UpdateStatus(ctx, request.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	s.audit.record(ctx, actor, auditAction, request.ID.String(), "",
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": next})
	notify(s.notifier, event, request.ID.String(), next)

	return request, nil
}
