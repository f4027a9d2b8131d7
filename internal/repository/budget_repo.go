package repository

import (
	"context"
	"time"

	"requisition-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BudgetRepository interface {
	Create(ctx context.Context, budget *model.UnitBudget) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UnitBudget, error)
	// FindActive returns the unit's budget whose period contains the given day.
	FindActive(ctx context.Context, unitID uuid.UUID, at time.Time) (*model.UnitBudget, error)
	ListByUnit(ctx context.Context, unitID uuid.UUID) ([]model.UnitBudget, error)
	// Debit atomically moves amount from available to used, guarded by
	// available_amount >= amount at write time. Returns rows affected.
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (int64, error)
	AppendTransaction(ctx context.Context, tx *model.FinancialTransaction) error
	ListTransactions(ctx context.Context, budgetID uuid.UUID, page, limit int) ([]model.FinancialTransaction, int64, error)
	CountTransactions(ctx context.Context, budgetID uuid.UUID) (int64, error)
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) Create(ctx context.Context, budget *model.UnitBudget) error {
	return GetDB(ctx, r.db).Create(budget).Error
}

func (r *budgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UnitBudget, error) {
	var budget model.UnitBudget
	if err := GetDB(ctx, r.db).First(&budget, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) FindActive(ctx context.Context, unitID uuid.UUID, at time.Time) (*model.UnitBudget, error) {
	var budget model.UnitBudget
	if err := GetDB(ctx, r.db).
		Where("unit_id = ? AND period_start <= ? AND period_end >= ?", unitID, at, at).
		Order("period_start DESC").
		First(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) ListByUnit(ctx context.Context, unitID uuid.UUID) ([]model.UnitBudget, error) {
	var budgets []model.UnitBudget
	if err := GetDB(ctx, r.db).
		Where("unit_id = ?", unitID).
		Order("period_start DESC").
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

func (r *budgetRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.UnitBudget{}).
		Where("id = ? AND available_amount >= ?", id, amount).
		Updates(map[string]interface{}{
			"used_amount":      gorm.Expr("used_amount + ?", amount),
			"available_amount": gorm.Expr("available_amount - ?", amount),
		})
	return res.RowsAffected, res.Error
}

func (r *budgetRepository) AppendTransaction(ctx context.Context, tx *model.FinancialTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *budgetRepository) ListTransactions(ctx context.Context, budgetID uuid.UUID, page, limit int) ([]model.FinancialTransaction, int64, error) {
	var txs []model.FinancialTransaction
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.FinancialTransaction{}).Where("unit_budget_id = ?", budgetID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("unit_budget_id = ?", budgetID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}

func (r *budgetRepository) CountTransactions(ctx context.Context, budgetID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.FinancialTransaction{}).
		Where("unit_budget_id = ?", budgetID).
		Count(&total).Error
	return total, err
}
