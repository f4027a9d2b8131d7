package service

import (
	"context"
	"testing"

	"requisition-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) requestService() RequestService {
	return NewRequestService(e.requestRepo, e.unitRepo, e.itemRepo, e.reconciler(), e.txManager, e.auditRepo)
}

func TestCreateRequestComputesEstimatedCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	itemA := env.createItem(t, "A", "10")
	itemB := env.createItem(t, "B", "2.50")

	req, err := svc.Create(ctx, unitAdminActor(unit.ID), CreateRequestDTO{
		RequestingUnitID: unit.ID.String(),
		CDUnitID:         cd.ID.String(),
		Items: []RequestItemInput{
			{ItemID: itemA.ID.String(), QuantityRequested: 3},
			{ItemID: itemB.ID.String(), QuantityRequested: 4},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.RequestStatusRequested, req.Status)
	assert.Equal(t, model.PriorityNormal, req.Priority)
	// 3*10 + 4*2.50 = 40
	assert.True(t, req.TotalEstimatedCost.Equal(decimal.RequireFromString("40")), "total = %s", req.TotalEstimatedCost)
	assert.Len(t, req.Items, 2)
}

func TestCreateRequestRejectsNonCDTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	notACD := env.createUnit(t, "U2", false)
	item := env.createItem(t, "A", "10")

	_, err := svc.Create(ctx, unitAdminActor(unit.ID), CreateRequestDTO{
		RequestingUnitID: unit.ID.String(),
		CDUnitID:         notACD.ID.String(),
		Items:            []RequestItemInput{{ItemID: item.ID.String(), QuantityRequested: 1}},
	})
	assert.True(t, IsValidation(err))
}

func TestListReconcilesStaleStatuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusApproved)

	reqID := req.ID
	require.NoError(t, env.db.Create(&model.Purchase{RequestID: &reqID, CDUnitID: cd.ID, Status: model.PurchaseStatusOrderPlaced}).Error)

	requests, total, err := svc.List(ctx, adminActor(), ListRequestsFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, requests, 1)

	// The stale approved status is corrected within the same response
	assert.Equal(t, model.RequestStatusPendingPurchase, requests[0].Status)
	assert.Equal(t, model.RequestStatusPendingPurchase, env.reloadRequest(t, req.ID).Status)
}

func TestListScopesUnitAdminToOwnUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	mine := env.createUnit(t, "U1", false)
	other := env.createUnit(t, "U2", false)
	cd := env.createUnit(t, "CD1", true)
	env.createRequest(t, mine, cd, model.RequestStatusRequested)
	env.createRequest(t, other, cd, model.RequestStatusRequested)

	requests, total, err := svc.List(ctx, unitAdminActor(mine.ID), ListRequestsFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, requests, 1)
	assert.Equal(t, mine.ID, requests[0].RequestingUnitID)
}

func TestGetDeniesForeignUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	other := env.createUnit(t, "U2", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusRequested)

	_, err := svc.Get(ctx, unitAdminActor(other.ID), req.ID.String())
	assert.ErrorIs(t, err, ErrPermission)

	got, err := svc.Get(ctx, unitAdminActor(unit.ID), req.ID.String())
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)
}

func TestUpdateReplacesItemSetWhileEditable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	itemA := env.createItem(t, "A", "10")
	itemB := env.createItem(t, "B", "2")

	req := env.createRequest(t, unit, cd, model.RequestStatusRequested,
		model.RequestItem{ItemID: itemA.ID, QuantityRequested: 1},
	)

	updated, err := svc.Update(ctx, unitAdminActor(unit.ID), req.ID.String(), UpdateRequestDTO{
		Items: []RequestItemInput{
			{ItemID: itemB.ID.String(), QuantityRequested: 5},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, itemB.ID, updated.Items[0].ItemID)
	assert.Equal(t, 5, updated.Items[0].QuantityRequested)
	assert.True(t, updated.TotalEstimatedCost.Equal(decimal.RequireFromString("10")))
}

func TestUpdateLockedOnceFulfillmentStarts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	item := env.createItem(t, "A", "10")

	req := env.createRequest(t, unit, cd, model.RequestStatusApproved,
		model.RequestItem{ItemID: item.ID, QuantityRequested: 1},
	)

	_, err := svc.Update(ctx, adminActor(), req.ID.String(), UpdateRequestDTO{
		Items: []RequestItemInput{{ItemID: item.ID.String(), QuantityRequested: 9}},
	})
	assert.ErrorIs(t, err, ErrRequestLocked)
}

func TestDeleteOnlyWhileRequested(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.requestService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)

	approved := env.createRequest(t, unit, cd, model.RequestStatusApproved)
	assert.ErrorIs(t, svc.Delete(ctx, adminActor(), approved.ID.String()), ErrRequestLocked)

	fresh := env.createRequest(t, unit, cd, model.RequestStatusRequested)
	require.NoError(t, svc.Delete(ctx, adminActor(), fresh.ID.String()))

	var count int64
	require.NoError(t, env.db.Model(&model.Request{}).Where("id = ?", fresh.ID).Count(&count).Error)
	assert.Zero(t, count)
}
