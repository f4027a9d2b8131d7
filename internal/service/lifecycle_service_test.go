package service

import (
	"context"
	"testing"

	"requisition-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) lifecycleService() LifecycleService {
	return NewLifecycleService(e.requestRepo, e.purchaseRepo, e.budgetRepo, e.budgetService(), e.txManager, e.auditRepo, nil)
}

func TestApproveDefaultsQuantities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 8},
	)

	approved, err := svc.Approve(ctx, adminActor(), req.ID.String(), ApproveRequestDTO{})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	stored := env.reloadRequest(t, req.ID)
	require.NotNil(t, stored.Items[0].QuantityApproved)
	assert.Equal(t, 8, *stored.Items[0].QuantityApproved)
}

func TestApproveRejectsQuantityAboveRequested(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 5},
	)
	stored := env.reloadRequest(t, req.ID)

	_, err := svc.Approve(ctx, adminActor(), req.ID.String(), ApproveRequestDTO{
		Quantities: map[string]int{stored.Items[0].ID.String(): 6},
	})
	assert.True(t, IsValidation(err))

	// Nothing moved
	assert.Equal(t, model.RequestStatusAnalyzing, env.reloadRequest(t, req.ID).Status)
}

func TestApproveWithPricesRequiresEveryItemPriced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	itemA := env.createItem(t, "A", "10")
	itemB := env.createItem(t, "B", "5")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: itemA.ID, QuantityRequested: 2},
		model.RequestItem{ItemID: itemB.ID, QuantityRequested: 3},
	)
	stored := env.reloadRequest(t, req.ID)

	// Only one of two items priced: the whole approval is rejected and no
	// status change happens.
	_, err := svc.Approve(ctx, adminActor(), req.ID.String(), ApproveRequestDTO{
		Prices: []ItemPriceInput{
			{RequestItemID: stored.Items[0].ID.String(), UnitPrice: "12.50"},
		},
	})
	assert.True(t, IsValidation(err))
	assert.Equal(t, model.RequestStatusAnalyzing, env.reloadRequest(t, req.ID).Status)
}

func TestApproveWithPricesComputesTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	itemA := env.createItem(t, "A", "10")
	itemB := env.createItem(t, "B", "5")
	env.createBudget(t, unit, "1000")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: itemA.ID, QuantityRequested: 2},
		model.RequestItem{ItemID: itemB.ID, QuantityRequested: 3},
	)
	stored := env.reloadRequest(t, req.ID)

	approved, err := svc.Approve(ctx, financeActor(), req.ID.String(), ApproveRequestDTO{
		Prices: []ItemPriceInput{
			{RequestItemID: stored.Items[0].ID.String(), UnitPrice: "12.50"},
			{RequestItemID: stored.Items[1].ID.String(), UnitPrice: "4"},
		},
	})
	require.ErrorIs(t, err, ErrPermission)
	assert.Nil(t, approved)

	// Finance alone cannot drive the fulfillment transition; a manager can
	// both transition and price.
	approved, err = svc.Approve(ctx, Actor{Role: model.RoleManager}, req.ID.String(), ApproveRequestDTO{
		Prices: []ItemPriceInput{
			{RequestItemID: stored.Items[0].ID.String(), UnitPrice: "12.50"},
			{RequestItemID: stored.Items[1].ID.String(), UnitPrice: "4"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, approved.Status)
	// 2*12.50 + 3*4 = 37
	assert.True(t, approved.TotalEstimatedCost.Equal(decimal.RequireFromString("37")), "total = %s", approved.TotalEstimatedCost)
}

func TestApproveBudgetPreCheck(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")
	env.createBudget(t, unit, "50")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 10},
	)
	stored := env.reloadRequest(t, req.ID)

	_, err := svc.Approve(ctx, adminActor(), req.ID.String(), ApproveRequestDTO{
		Prices: []ItemPriceInput{
			{RequestItemID: stored.Items[0].ID.String(), UnitPrice: "10"},
		},
	})
	assert.ErrorIs(t, err, ErrInsufficientBudget)
	assert.Equal(t, model.RequestStatusAnalyzing, env.reloadRequest(t, req.ID).Status)
}

func TestRejectRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusRequested)

	_, err := svc.Reject(ctx, adminActor(), req.ID.String(), "")
	assert.True(t, IsValidation(err))

	rejected, err := svc.Reject(ctx, adminActor(), req.ID.String(), "over budget for this quarter")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "over budget for this quarter", rejected.RejectionReason)
}

func TestTerminalRequestsAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)

	canceled := env.createRequest(t, unit, cd, model.RequestStatusCanceled)
	_, err := svc.Cancel(ctx, adminActor(), canceled.ID.String())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	finalized := env.createRequest(t, unit, cd, model.RequestStatusApprovedByUnit)
	_, err = svc.MarkError(ctx, adminActor(), finalized.ID.String(), nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStartPreparingBlockedByOpenPurchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusApproved)

	reqID := req.ID
	require.NoError(t, env.db.Create(&model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusInTransit}).Error)

	_, err := svc.StartPreparing(ctx, warehouseActor(cd.ID), req.ID.String())
	assert.True(t, IsValidation(err))

	// Once every linked purchase closes, preparation may begin
	require.NoError(t, env.db.Model(&model.Purchase{}).Where("request_id = ?", req.ID).
		Update("status", model.PurchaseStatusFinalized).Error)

	prepared, err := svc.StartPreparing(ctx, warehouseActor(cd.ID), req.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPreparing, prepared.Status)
}

func TestFinalizeConsumesBudgetOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	env.createBudget(t, unit, "300")

	req := env.createRequest(t, unit, cd, model.RequestStatusReceived)
	req.TotalEstimatedCost = decimal.RequireFromString("120")
	require.NoError(t, env.db.Save(req).Error)

	finalized, err := svc.Finalize(ctx, unitAdminActor(unit.ID), req.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApprovedByUnit, finalized.Status)
	assert.True(t, finalized.BudgetConsumed)

	_, err = svc.Finalize(ctx, unitAdminActor(unit.ID), req.ID.String())
	assert.Error(t, err)

	var txCount int64
	require.NoError(t, env.db.Model(&model.FinancialTransaction{}).Count(&txCount).Error)
	assert.EqualValues(t, 1, txCount)
}

func TestMarkErrorFlagsItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusPreparing,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 5},
	)
	stored := env.reloadRequest(t, req.ID)

	flagged, err := svc.MarkError(ctx, warehouseActor(cd.ID), req.ID.String(), []ItemErrorInput{
		{RequestItemID: stored.Items[0].ID.String(), ErrorDescription: "item damaged during picking"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusErrorOnRequest, flagged.Status)

	stored = env.reloadRequest(t, req.ID)
	assert.True(t, stored.Items[0].HasError)
	assert.Equal(t, "item damaged during picking", stored.Items[0].ErrorDescription)

	// Resolving clears the flags and returns the request to analysis
	resolved, err := svc.ResolveError(ctx, warehouseActor(cd.ID), req.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAnalyzing, resolved.Status)

	stored = env.reloadRequest(t, req.ID)
	assert.False(t, stored.Items[0].HasError)
	assert.Empty(t, stored.Items[0].ErrorDescription)
}

func TestSetItemPriceRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.lifecycleService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusApproved,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 5},
	)
	stored := env.reloadRequest(t, req.ID)
	itemID := stored.Items[0].ID.String()

	_, err := svc.SetItemPrice(ctx, warehouseActor(cd.ID), req.ID.String(), itemID, "9.99")
	assert.ErrorIs(t, err, ErrPermission)

	_, err = svc.SetItemPrice(ctx, financeActor(), req.ID.String(), itemID, "-1")
	assert.True(t, IsValidation(err))

	_, err = svc.SetItemPrice(ctx, financeActor(), req.ID.String(), itemID, "9.99")
	require.NoError(t, err)

	stored = env.reloadRequest(t, req.ID)
	require.NotNil(t, stored.Items[0].UnitPrice)
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")))
}
