package service

import (
	"context"
	"testing"

	"requisition-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) shipmentService() ShipmentService {
	return NewShipmentService(e.shipmentRepo, e.requestRepo, e.reconciler(), e.auditRepo, nil)
}

func TestShipmentLegDrivesRequestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.shipmentService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusPreparing)

	leg, err := svc.CreateLeg(ctx, warehouseActor(cd.ID), CreateShipmentLegDTO{
		RequestID:    req.ID.String(),
		Carrier:      "DHL",
		TrackingCode: "TRK-001",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentLegPreparing, leg.Status)

	// Dispatching the only leg moves the request to shipped
	leg, err = svc.Dispatch(ctx, warehouseActor(cd.ID), leg.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentLegInTransit, leg.Status)
	assert.NotNil(t, leg.DispatchedAt)
	assert.Equal(t, model.RequestStatusShipped, env.reloadRequest(t, req.ID).Status)

	// Delivering it moves the request to received
	leg, err = svc.MarkDelivered(ctx, warehouseActor(cd.ID), leg.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.ShipmentLegDelivered, leg.Status)
	assert.NotNil(t, leg.DeliveredAt)
	assert.Equal(t, model.RequestStatusReceived, env.reloadRequest(t, req.ID).Status)
}

func TestPartialDeliveryKeepsRequestShipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.shipmentService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusPreparing)

	first, err := svc.CreateLeg(ctx, warehouseActor(cd.ID), CreateShipmentLegDTO{RequestID: req.ID.String()})
	require.NoError(t, err)
	second, err := svc.CreateLeg(ctx, warehouseActor(cd.ID), CreateShipmentLegDTO{RequestID: req.ID.String()})
	require.NoError(t, err)

	_, err = svc.Dispatch(ctx, warehouseActor(cd.ID), first.ID.String())
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, warehouseActor(cd.ID), second.ID.String())
	require.NoError(t, err)

	// One of two legs delivered: still shipped, not received
	_, err = svc.MarkDelivered(ctx, warehouseActor(cd.ID), first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusShipped, env.reloadRequest(t, req.ID).Status)

	_, err = svc.MarkDelivered(ctx, warehouseActor(cd.ID), second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusReceived, env.reloadRequest(t, req.ID).Status)
}

func TestShipmentLegTransitionsAreOrdered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.shipmentService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusPreparing)

	leg, err := svc.CreateLeg(ctx, warehouseActor(cd.ID), CreateShipmentLegDTO{RequestID: req.ID.String()})
	require.NoError(t, err)

	// A leg still preparing cannot be delivered
	_, err = svc.MarkDelivered(ctx, warehouseActor(cd.ID), leg.ID.String())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Dispatch(ctx, warehouseActor(cd.ID), leg.ID.String())
	require.NoError(t, err)

	// No double dispatch
	_, err = svc.Dispatch(ctx, warehouseActor(cd.ID), leg.ID.String())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreateLegRejectsTerminalRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.shipmentService()

	unit := env.createUnit(t, "U1", false)
	cd := env.createUnit(t, "CD1", true)
	req := env.createRequest(t, unit, cd, model.RequestStatusCanceled)

	_, err := svc.CreateLeg(ctx, warehouseActor(cd.ID), CreateShipmentLegDTO{RequestID: req.ID.String()})
	assert.ErrorIs(t, err, ErrRequestLocked)
}
