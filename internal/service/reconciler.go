package service

import (
	"context"
	"log"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"
)

// Reconciler corrects a request's status against its linked purchases and
// shipment legs. It runs opportunistically on every list/fetch, is
// idempotent, and never surfaces failures: a reconciliation error must not
// block a read path, so everything here is logged and swallowed.
type Reconciler struct {
	requestRepo  repository.RequestRepository
	purchaseRepo repository.PurchaseRepository
	shipmentRepo repository.ShipmentRepository
}

func NewReconciler(
	requestRepo repository.RequestRepository,
	purchaseRepo repository.PurchaseRepository,
	shipmentRepo repository.ShipmentRepository,
) *Reconciler {
	return &Reconciler{
		requestRepo:  requestRepo,
		purchaseRepo: purchaseRepo,
		shipmentRepo: shipmentRepo,
	}
}

// ReconcileAll runs Reconcile over a page of requests, mutating each entry
// in place so list responses reflect corrected statuses without a second
// fetch.
func (r *Reconciler) ReconcileAll(ctx context.Context, requests []model.Request) {
	for i := range requests {
		r.Reconcile(ctx, &requests[i])
	}
}

// Reconcile applies the purchase-gap pass first, then the shipment pass.
// The ordering matters: a request just moved to approved_pending_purchase
// must not be clobbered by a shipment check predating its purchases.
func (r *Reconciler) Reconcile(ctx context.Context, req *model.Request) {
	r.reconcilePurchases(ctx, req)
	r.reconcileShipments(ctx, req)
}

func (r *Reconciler) reconcilePurchases(ctx context.Context, req *model.Request) {
	if req.Status != model.RequestStatusApproved {
		return
	}

	purchases, err := r.purchaseRepo.FindByRequestID(ctx, req.ID)
	if err != nil {
		log.Printf("reconcile: purchase lookup failed for request %s: %v", req.ID, err)
		return
	}
	if len(purchases) == 0 {
		return
	}

	open := false
	for _, p := range purchases {
		if !p.Status.Terminal() {
			open = true
			break
		}
	}
	// All purchases terminal: the finalizing write already reset the
	// request, leave the accurate approved status alone.
	if !open {
		return
	}

	r.apply(ctx, req, model.RequestStatusPendingPurchase)
}

func (r *Reconciler) reconcileShipments(ctx context.Context, req *model.Request) {
	if req.Status == model.RequestStatusApprovedByUnit {
		return
	}

	legs, err := r.shipmentRepo.FindByRequestID(ctx, req.ID)
	if err != nil {
		log.Printf("reconcile: shipment lookup failed for request %s: %v", req.ID, err)
		return
	}
	if len(legs) == 0 {
		return
	}

	allDelivered := true
	anyInTransit := false
	for _, leg := range legs {
		if leg.Status != model.ShipmentLegDelivered {
			allDelivered = false
		}
		if leg.Status == model.ShipmentLegInTransit {
			anyInTransit = true
		}
	}

	var derived model.RequestStatus
	switch {
	case allDelivered:
		derived = model.RequestStatusReceived
	case anyInTransit:
		derived = model.RequestStatusShipped
	default:
		return
	}

	if derived == req.Status {
		return
	}
	r.apply(ctx, req, derived)
}

// apply persists the corrected status immediately and mutates the in-memory
// request either way, so callers see the derived state even if the write
// failed and the next fetch has to converge again.
func (r *Reconciler) apply(ctx context.Context, req *model.Request, status model.RequestStatus) {
	if err := r.requestRepo.UpdateStatus(ctx, req.ID, status); err != nil {
		log.Printf("reconcile: status write failed for request %s (%s -> %s): %v", req.ID, req.Status, status, err)
	}
	req.Status = status
}
