package service

import (
	"context"
	"testing"

	"requisition-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileOpenPurchaseMovesToPendingPurchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusApproved)

	reqID := req.ID
	require.NoError(t, env.db.Create(&model.Purchase{
		RequestID: &reqID,
		CDUnitID:  cd.ID,
		Status:    model.PurchaseStatusOrderPlaced,
	}).Error)

	env.reconciler().Reconcile(ctx, req)

	assert.Equal(t, model.RequestStatusPendingPurchase, req.Status)
	assert.Equal(t, model.RequestStatusPendingPurchase, env.reloadRequest(t, req.ID).Status)
}

func TestReconcileAllPurchasesTerminalLeavesApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusApproved)

	reqID := req.ID
	require.NoError(t, env.db.Create(&model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusFinalized}).Error)
	require.NoError(t, env.db.Create(&model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusCanceled}).Error)

	env.reconciler().Reconcile(ctx, req)

	assert.Equal(t, model.RequestStatusApproved, req.Status)
}

func TestReconcileAllLegsDeliveredMovesToReceived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusShipped)

	require.NoError(t, env.db.Create(&model.ShipmentLeg{RequestID: req.ID, Status: model.ShipmentLegDelivered}).Error)
	require.NoError(t, env.db.Create(&model.ShipmentLeg{RequestID: req.ID, Status: model.ShipmentLegDelivered}).Error)

	env.reconciler().Reconcile(ctx, req)

	assert.Equal(t, model.RequestStatusReceived, req.Status)
	assert.Equal(t, model.RequestStatusReceived, env.reloadRequest(t, req.ID).Status)
}

func TestReconcileAnyLegInTransitMovesToShipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusPreparing)

	require.NoError(t, env.db.Create(&model.ShipmentLeg{RequestID: req.ID, Status: model.ShipmentLegDelivered}).Error)
	require.NoError(t, env.db.Create(&model.ShipmentLeg{RequestID: req.ID, Status: model.ShipmentLegInTransit}).Error)

	env.reconciler().Reconcile(ctx, req)

	assert.Equal(t, model.RequestStatusShipped, req.Status)
}

func TestReconcileDoesNotTouchFinalizedRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusApprovedByUnit)

	require.NoError(t, env.db.Create(&model.ShipmentLeg{RequestID: req.ID, Status: model.ShipmentLegDelivered}).Error)

	env.reconciler().Reconcile(ctx, req)

	// approved_by_unit is past received; derived shipment state must not
	// regress it.
	assert.Equal(t, model.RequestStatusApprovedByUnit, req.Status)
}

func TestReconcileNoPurchasesNoLegsIsANoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusApproved)

	env.reconciler().Reconcile(ctx, req)

	assert.Equal(t, model.RequestStatusApproved, req.Status)
}

func TestReconcileAllMutatesPageInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	blocked := env.createRequest(t, unit, cd, model.RequestStatusApproved)
	clean := env.createRequest(t, unit, cd, model.RequestStatusApproved)

	blockedID := blocked.ID
	require.NoError(t, env.db.Create(&model.Purchase{RequestID: &blockedID, CDUnitID: cd.ID, Status: model.PurchaseStatusInTransit}).Error)

	page := []model.Request{*blocked, *clean}
	env.reconciler().ReconcileAll(ctx, page)

	assert.Equal(t, model.RequestStatusPendingPurchase, page[0].Status)
	assert.Equal(t, model.RequestStatusApproved, page[1].Status)
}
