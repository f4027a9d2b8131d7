package service

import (
	"context"
	"testing"

	"requisition-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) purchaseService() PurchaseService {
	return NewPurchaseService(e.purchaseRepo, e.requestRepo, e.supplierRepo, e.unitRepo, e.txManager, e.auditRepo)
}

func TestFinalizingLastPurchaseLiftsTheGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.purchaseService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusPendingPurchase)

	reqID := req.ID
	first := &model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusInTransit}
	second := &model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusInTransit}
	require.NoError(t, env.db.Create(first).Error)
	require.NoError(t, env.db.Create(second).Error)

	// One purchase still open: the request stays blocked
	_, err := svc.UpdateStatus(ctx, warehouseActor(cd.ID), first.ID.String(), model.PurchaseStatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPendingPurchase, env.reloadRequest(t, req.ID).Status)

	// Closing the last one resets the request to approved
	_, err = svc.UpdateStatus(ctx, warehouseActor(cd.ID), second.ID.String(), model.PurchaseStatusFinalized)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, env.reloadRequest(t, req.ID).Status)
}

func TestCancelingPurchaseAlsoLiftsTheGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.purchaseService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusPendingPurchase)

	reqID := req.ID
	purchase := &model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusOrderPlaced}
	require.NoError(t, env.db.Create(purchase).Error)

	_, err := svc.UpdateStatus(ctx, warehouseActor(cd.ID), purchase.ID.String(), model.PurchaseStatusCanceled)
	require.NoError(t, err)

	// A canceled purchase no longer blocks its request
	assert.Equal(t, model.RequestStatusApproved, env.reloadRequest(t, req.ID).Status)
}

func TestPurchaseStatusOrderIsEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.purchaseService()

	cd := env.createUnit(t, "CD1", true)
	purchase := &model.Purchase{CDUnitID: cd.ID, Status: model.PurchaseStatusOrderPlaced}
	require.NoError(t, env.db.Create(purchase).Error)

	// No skipping straight to finalized
	_, err := svc.UpdateStatus(ctx, adminActor(), purchase.ID.String(), model.PurchaseStatusFinalized)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Walk the legal chain
	for _, status := range []model.PurchaseStatus{
		model.PurchaseStatusSupplierConfirmed,
		model.PurchaseStatusInTransit,
		model.PurchaseStatusFinalized,
	} {
		_, err := svc.UpdateStatus(ctx, adminActor(), purchase.ID.String(), status)
		require.NoError(t, err, "move to %s", status)
	}

	// Terminal purchases stay put
	_, err = svc.UpdateStatus(ctx, adminActor(), purchase.ID.String(), model.PurchaseStatusCanceled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreatePurchaseValidatesDistributionCenter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.purchaseService()

	plainUnit := env.createUnit(t, "U1", false)
	item := env.createItem(t, "A", "10")

	_, err := svc.Create(ctx, adminActor(), CreatePurchaseDTO{
		CDUnitID: plainUnit.ID.String(),
		Items:    []PurchaseItemInput{{ItemID: item.ID.String(), Quantity: 5}},
	})
	assert.True(t, IsValidation(err))

	cd := env.createUnit(t, "CD1", true)
	purchase, err := svc.Create(ctx, adminActor(), CreatePurchaseDTO{
		CDUnitID: cd.ID.String(),
		Items:    []PurchaseItemInput{{ItemID: item.ID.String(), Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusOrderPlaced, purchase.Status)
	assert.Nil(t, purchase.RequestID)
}
