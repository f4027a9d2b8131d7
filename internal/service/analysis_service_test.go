package service

import (
	"context"
	"testing"

	"requisition-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) analysisService() AnalysisService {
	return NewAnalysisService(e.requestRepo, e.purchaseRepo, e.stockRepo, e.itemRepo, e.txManager, e.auditRepo)
}

func TestAnalyzeSnapshotsStockAndFlagsGaps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.analysisService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	itemA := env.createItem(t, "A", "10")
	itemB := env.createItem(t, "B", "5")
	env.setStock(t, cd, itemA, 3)
	env.setStock(t, cd, itemB, 50)

	req := env.createRequest(t, unit, cd, model.RequestStatusRequested,
		model.RequestItem{ItemID: itemA.ID, QuantityRequested: 10},
		model.RequestItem{ItemID: itemB.ID, QuantityRequested: 10},
	)

	results, err := svc.Analyze(ctx, warehouseActor(cd.ID), req.ID.String())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byItem := map[string]ItemAvailability{}
	for _, r := range results {
		byItem[r.ItemID.String()] = r
	}

	// Item A: stock 3 < requested 10, purchase gap
	a := byItem[itemA.ID.String()]
	require.NotNil(t, a.Stock)
	assert.Equal(t, 3, *a.Stock)
	assert.True(t, a.NeedsPurchase)

	// Item B: stock covers the demand
	b := byItem[itemB.ID.String()]
	require.NotNil(t, b.Stock)
	assert.Equal(t, 50, *b.Stock)
	assert.False(t, b.NeedsPurchase)

	stored := env.reloadRequest(t, req.ID)
	assert.Equal(t, model.RequestStatusAnalyzing, stored.Status)
	for _, item := range stored.Items {
		require.NotNil(t, item.QuantityApproved)
		assert.Equal(t, item.QuantityRequested, *item.QuantityApproved)
	}
}

func TestAnalyzeHidesStockForForeignWarehouse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.analysisService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	otherCD := env.createUnit(t, "CD2", true)
	item := env.createItem(t, "A", "10")
	env.setStock(t, cd, item, 0)

	req := env.createRequest(t, unit, cd, model.RequestStatusRequested,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 10},
	)

	// A warehouse operator bound to a different center gets the
	// not-applicable sentinel, never a zero.
	results, err := svc.Analyze(ctx, warehouseActor(otherCD.ID), req.ID.String())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Stock)
	assert.False(t, results[0].NeedsPurchase)

	stored := env.reloadRequest(t, req.ID)
	assert.Nil(t, stored.Items[0].CDStockAvailable)
	assert.False(t, stored.Items[0].NeedsPurchase)
	assert.Equal(t, model.RequestStatusAnalyzing, stored.Status)
}

func TestAnalyzeKeepsManualOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.analysisService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")
	env.setStock(t, cd, item, 100)

	req := env.createRequest(t, unit, cd, model.RequestStatusRequested,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 10},
	)
	stored := env.reloadRequest(t, req.ID)

	// Human forces a purchase despite ample stock
	require.NoError(t, svc.SetItemPurchaseFlag(ctx, adminActor(), req.ID.String(), stored.Items[0].ID.String(), true))

	// A later analysis must not revert the override
	results, err := svc.Analyze(ctx, warehouseActor(cd.ID), req.ID.String())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].NeedsPurchase)
	require.NotNil(t, results[0].Stock)
	assert.Equal(t, 100, *results[0].Stock)
}

func TestAnalyzeRejectsLateStatuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.analysisService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusApproved,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 10},
	)

	_, err := svc.Analyze(ctx, adminActor(), req.ID.String())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreatePurchaseFromRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.analysisService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	itemA := env.createItem(t, "A", "10")
	itemB := env.createItem(t, "B", "5")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: itemA.ID, QuantityRequested: 10, NeedsPurchase: true},
		model.RequestItem{ItemID: itemB.ID, QuantityRequested: 4, NeedsPurchase: false},
	)

	purchase, err := svc.CreatePurchaseFromRequest(ctx, warehouseActor(cd.ID), req.ID.String())
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusOrderPlaced, purchase.Status)
	require.NotNil(t, purchase.RequestID)
	assert.Equal(t, req.ID, *purchase.RequestID)
	assert.Equal(t, cd.ID, purchase.CDUnitID)

	// Only the flagged item, at full requested quantity
	require.Len(t, purchase.Items, 1)
	assert.Equal(t, itemA.ID, purchase.Items[0].ItemID)
	assert.Equal(t, 10, purchase.Items[0].Quantity)
}

func TestCreatePurchaseFromRequestNeedsFlaggedItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.analysisService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusAnalyzing,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 10},
	)

	_, err := svc.CreatePurchaseFromRequest(ctx, adminActor(), req.ID.String())
	assert.True(t, IsValidation(err))
}
