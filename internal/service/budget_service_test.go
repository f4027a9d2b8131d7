package service

import (
	"context"
	"testing"
	"time"

	"requisition-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) budgetService() BudgetService {
	return NewBudgetService(e.budgetRepo, e.requestRepo, e.unitRepo, e.txManager, e.auditRepo)
}

func (e *testEnv) createBudget(t *testing.T, unit *model.Unit, allocated string) *model.UnitBudget {
	t.Helper()
	amount := decimal.RequireFromString(allocated)
	budget := &model.UnitBudget{
		UnitID:          unit.ID,
		PeriodStart:     time.Now().AddDate(0, 0, -7),
		PeriodEnd:       time.Now().AddDate(0, 0, 7),
		AllocatedAmount: amount,
		UsedAmount:      decimal.Zero,
		AvailableAmount: amount,
	}
	require.NoError(t, e.db.Create(budget).Error)
	return budget
}

func TestDebitForFinalizeInsufficientBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.budgetService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	env.createBudget(t, unit, "100")

	req := env.createRequest(t, unit, cd, model.RequestStatusReceived)
	req.TotalEstimatedCost = decimal.RequireFromString("150")
	require.NoError(t, env.db.Save(req).Error)

	err := svc.DebitForFinalize(ctx, adminActor(), req)
	require.ErrorIs(t, err, ErrInsufficientBudget)

	// The whole unit of work rolled back: the consumed flag did not stick
	// and no ledger entry exists.
	stored := env.reloadRequest(t, req.ID)
	assert.False(t, stored.BudgetConsumed)
	assert.Equal(t, model.RequestStatusReceived, stored.Status)

	var txCount int64
	require.NoError(t, env.db.Model(&model.FinancialTransaction{}).Count(&txCount).Error)
	assert.Zero(t, txCount)
}

func TestDebitForFinalizeSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.budgetService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	budget := env.createBudget(t, unit, "200")

	req := env.createRequest(t, unit, cd, model.RequestStatusReceived)
	req.TotalEstimatedCost = decimal.RequireFromString("150")
	require.NoError(t, env.db.Save(req).Error)

	require.NoError(t, svc.DebitForFinalize(ctx, adminActor(), req))

	assert.Equal(t, model.RequestStatusApprovedByUnit, req.Status)
	assert.True(t, req.BudgetConsumed)

	stored := env.reloadRequest(t, req.ID)
	assert.True(t, stored.BudgetConsumed)
	assert.NotNil(t, stored.BudgetConsumptionDate)
	assert.Equal(t, model.RequestStatusApprovedByUnit, stored.Status)

	var storedBudget model.UnitBudget
	require.NoError(t, env.db.First(&storedBudget, "id = ?", budget.ID).Error)
	assert.True(t, storedBudget.UsedAmount.Equal(decimal.RequireFromString("150")), "used = %s", storedBudget.UsedAmount)
	assert.True(t, storedBudget.AvailableAmount.Equal(decimal.RequireFromString("50")), "available = %s", storedBudget.AvailableAmount)

	var entries []model.FinancialTransaction
	require.NoError(t, env.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, req.ID, entries[0].RequestID)
	assert.Equal(t, budget.ID, entries[0].UnitBudgetID)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("150")))
}

func TestDebitForFinalizeIsIdempotentGuarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.budgetService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	env.createBudget(t, unit, "500")

	req := env.createRequest(t, unit, cd, model.RequestStatusReceived)
	req.TotalEstimatedCost = decimal.RequireFromString("100")
	require.NoError(t, env.db.Save(req).Error)

	require.NoError(t, svc.DebitForFinalize(ctx, adminActor(), req))

	// Re-running against the stored row must lose the conditional update
	// on budget_consumed and debit nothing.
	stored := env.reloadRequest(t, req.ID)
	err := svc.DebitForFinalize(ctx, adminActor(), stored)
	require.ErrorIs(t, err, ErrBudgetAlreadyConsumed)

	var txCount int64
	require.NoError(t, env.db.Model(&model.FinancialTransaction{}).Count(&txCount).Error)
	assert.EqualValues(t, 1, txCount)

	var storedBudget model.UnitBudget
	require.NoError(t, env.db.First(&storedBudget, "unit_id = ?", unit.ID).Error)
	assert.True(t, storedBudget.UsedAmount.Equal(decimal.RequireFromString("100")))
}

func TestDebitForFinalizeWithoutPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.budgetService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)

	req := env.createRequest(t, unit, cd, model.RequestStatusReceived)
	req.TotalEstimatedCost = decimal.RequireFromString("10")
	require.NoError(t, env.db.Save(req).Error)

	err := svc.DebitForFinalize(ctx, adminActor(), req)
	assert.ErrorIs(t, err, ErrNoBudgetPeriod)
}

func TestSummaryCountsLedgerEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.budgetService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	budget := env.createBudget(t, unit, "500")

	req := env.createRequest(t, unit, cd, model.RequestStatusReceived)
	req.TotalEstimatedCost = decimal.RequireFromString("100")
	require.NoError(t, env.db.Save(req).Error)
	require.NoError(t, svc.DebitForFinalize(ctx, adminActor(), req))

	summary, err := svc.Summary(ctx, financeActor(), budget.ID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.TransactionCount)
	assert.True(t, summary.Budget.UsedAmount.Equal(decimal.RequireFromString("100")))

	// A unit admin of another unit gets nothing
	other := env.createUnit(t, "U2", false)
	_, err = svc.Summary(ctx, unitAdminActor(other.ID), budget.ID.String())
	assert.ErrorIs(t, err, ErrPermission)
}

func TestCreatePeriodValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.budgetService()

	unit := env.createUnit(t, "U1", false)

	// Warehouse operators cannot allocate budgets
	_, err := svc.CreatePeriod(ctx, warehouseActor(unit.ID), CreateBudgetDTO{
		UnitID: unit.ID.String(), PeriodStart: "2026-01-01", PeriodEnd: "2026-01-31", AllocatedAmount: "1000",
	})
	assert.ErrorIs(t, err, ErrPermission)

	// Period must end after it starts
	_, err = svc.CreatePeriod(ctx, financeActor(), CreateBudgetDTO{
		UnitID: unit.ID.String(), PeriodStart: "2026-02-01", PeriodEnd: "2026-01-01", AllocatedAmount: "1000",
	})
	assert.True(t, IsValidation(err))

	budget, err := svc.CreatePeriod(ctx, financeActor(), CreateBudgetDTO{
		UnitID: unit.ID.String(), PeriodStart: "2026-01-01", PeriodEnd: "2026-01-31", AllocatedAmount: "1000",
	})
	require.NoError(t, err)
	assert.True(t, budget.AvailableAmount.Equal(budget.AllocatedAmount))
	assert.True(t, budget.UsedAmount.IsZero())
}
