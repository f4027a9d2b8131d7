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

type CreateBudgetDTO struct {
	UnitID          string `json:"unit_id" binding:"required"`
	PeriodStart     string `json:"period_start" binding:"required"` // YYYY-MM-DD
	PeriodEnd       string `json:"period_end" binding:"required"`
	AllocatedAmount string `json:"allocated_amount" binding:"required"`
}

type BudgetSummary struct {
	Budget           model.UnitBudget `json:"budget"`
	TransactionCount int64            `json:"transaction_count"`
}

type BudgetService interface {
	CreatePeriod(ctx context.Context, actor Actor, req CreateBudgetDTO) (*model.UnitBudget, error)
	ListByUnit(ctx context.Context, actor Actor, unitID string) ([]model.UnitBudget, error)
	ListTransactions(ctx context.Context, actor Actor, budgetID string, page, limit int) ([]model.FinancialTransaction, int64, error)
	Summary(ctx context.Context, actor Actor, budgetID string) (*BudgetSummary, error)
	// DebitForFinalize performs the finalization unit of work: debit the
	// active budget envelope, flip the request's budget_consumed flag
	// together with its final status, and append the ledger entry. All four
	// writes commit or roll back together.
	DebitForFinalize(ctx context.Context, actor Actor, request *model.Request) error
}

type budgetService struct {
	budgetRepo  repository.BudgetRepository
	requestRepo repository.RequestRepository
	unitRepo    repository.UnitRepository
	txManager   repository.TransactionManager
	audit       *auditor
}

func NewBudgetService(
	budgetRepo repository.BudgetRepository,
	requestRepo repository.RequestRepository,
	unitRepo repository.UnitRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
) BudgetService {
	return &budgetService{
		budgetRepo:  budgetRepo,
		requestRepo: requestRepo,
		unitRepo:    unitRepo,
		txManager:   txManager,
		audit:       newAuditor(auditRepo),
	}
}

func (s *budgetService) CreatePeriod(ctx context.Context, actor Actor, req CreateBudgetDTO) (*model.UnitBudget, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleFinance) {
		return nil, fmt.Errorf("%w: budget periods are managed by finance roles", ErrPermission)
	}

	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		return nil, validationf("unit_id", "invalid unit id")
	}
	if _, err := s.unitRepo.FindByID(ctx, unitID); err != nil {
		return nil, validationf("unit_id", "unit not found")
	}

	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return nil, validationf("period_start", "expected YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return nil, validationf("period_end", "expected YYYY-MM-DD")
	}
	if !end.After(start) {
		return nil, validationf("period_end", "period must end after it starts")
	}

	allocated, err := decimal.NewFromString(req.AllocatedAmount)
	if err != nil || allocated.IsNegative() {
		return nil, validationf("allocated_amount", "expected a non-negative decimal amount")
	}

	budget := &model.UnitBudget{
		UnitID:          unitID,
		PeriodStart:     start,
		PeriodEnd:       end,
		AllocatedAmount: allocated,
		UsedAmount:      decimal.Zero,
		AvailableAmount: allocated,
	}
	if err := s.budgetRepo.Create(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to create budget period: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreateBudget, budget.ID.String(), "", nil, budget)
	return budget, nil
}

func (s *budgetService) ListByUnit(ctx context.Context, actor Actor, unitID string) ([]model.UnitBudget, error) {
	id, err := uuid.Parse(unitID)
	if err != nil {
		return nil, validationf("unit_id", "invalid unit id")
	}
	if !actor.BoundTo(id) && !actor.HasRole(model.RoleFinance) {
		return nil, fmt.Errorf("%w: budgets belong to another unit", ErrPermission)
	}
	return s.budgetRepo.ListByUnit(ctx, id)
}

func (s *budgetService) ListTransactions(ctx context.Context, actor Actor, budgetID string, page, limit int) ([]model.FinancialTransaction, int64, error) {
	id, err := uuid.Parse(budgetID)
	if err != nil {
		return nil, 0, validationf("budget_id", "invalid budget id")
	}
	budget, err := s.budgetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if !actor.BoundTo(budget.UnitID) && !actor.HasRole(model.RoleFinance) {
		return nil, 0, fmt.Errorf("%w: budgets belong to another unit", ErrPermission)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.budgetRepo.ListTransactions(ctx, id, page, limit)
}

// Summary pairs the envelope with its ledger entry count, a one-screen
// consumption view per period.
func (s *budgetService) Summary(ctx context.Context, actor Actor, budgetID string) (*BudgetSummary, error) {
	id, err := uuid.Parse(budgetID)
	if err != nil {
		return nil, validationf("budget_id", "invalid budget id")
	}
	budget, err := s.budgetRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.BoundTo(budget.UnitID) && !actor.HasRole(model.RoleFinance) {
		return nil, fmt.Errorf("%w: budgets belong to another unit", ErrPermission)
	}
	count, err := s.budgetRepo.CountTransactions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return &BudgetSummary{Budget: *budget, TransactionCount: count}, nil
}

func (s *budgetService) DebitForFinalize(ctx context.Context, actor Actor, request *model.Request) error {
	amount := request.TotalEstimatedCost
	if amount.IsNegative() {
		return validationf("total_estimated_cost", "cannot debit a negative amount")
	}

	now := time.Now()
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		budget, err := s.budgetRepo.FindActive(txCtx, request.RequestingUnitID, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoBudgetPeriod
			}
			return fmt.Errorf("failed to locate budget period: %w", err)
		}

		// Conditional flip on budget_consumed: the second of two racing
		// finalize calls affects zero rows and the whole tx rolls back.
		rows, err := s.requestRepo.ConsumeBudget(txCtx, request.ID, map[string]interface{}{
			"budget_consumed":         true,
			"budget_consumption_date": now,
			"status":                  model.RequestStatusApprovedByUnit,
			"updated_at":              now,
		})
		if err != nil {
			return fmt.Errorf("failed to mark budget consumed: %w", err)
		}
		if rows == 0 {
			return ErrBudgetAlreadyConsumed
		}

		// Guarded at write time by available_amount >= amount, not by an
		// earlier read.
		rows, err = s.budgetRepo.Debit(txCtx, budget.ID, amount)
		if err != nil {
			return fmt.Errorf("failed to debit budget: %w", err)
		}
		if rows == 0 {
			return ErrInsufficientBudget
		}

		actorID := actor.ID
		entry := &model.FinancialTransaction{
			Type:         model.TransactionTypeExpense,
			Amount:       amount,
			RequestID:    request.ID,
			UnitBudgetID: budget.ID,
			CreatedBy:    &actorID,
			Description:  fmt.Sprintf("finalization of request %s", request.ID),
		}
		if err := s.budgetRepo.AppendTransaction(txCtx, entry); err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	request.Status = model.RequestStatusApprovedByUnit
	request.BudgetConsumed = true
	request.BudgetConsumptionDate = &now

	s.audit.record(ctx, actor, model.ActionDebitBudget, request.ID.String(), "",
		nil, map[string]interface{}{"amount": amount.String(), "unit_id": request.RequestingUnitID})

	return nil
}
