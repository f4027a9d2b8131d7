package service

import (
	"context"
	"fmt"
	"time"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateShipmentLegDTO struct {
	RequestID    string `json:"request_id" binding:"required"`
	Carrier      string `json:"carrier"`
	TrackingCode string `json:"tracking_code"`
}

type ShipmentService interface {
	CreateLeg(ctx context.Context, actor Actor, req CreateShipmentLegDTO) (*model.ShipmentLeg, error)
	Dispatch(ctx context.Context, actor Actor, legID string) (*model.ShipmentLeg, error)
	MarkDelivered(ctx context.Context, actor Actor, legID string) (*model.ShipmentLeg, error)
	ListByRequest(ctx context.Context, actor Actor, requestID string) ([]model.ShipmentLeg, error)
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	requestRepo  repository.RequestRepository
	reconciler   *Reconciler
	audit        *auditor
	notifier     Notifier
}

func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	requestRepo repository.RequestRepository,
	reconciler *Reconciler,
	auditRepo repository.AuditRepository,
	notifier Notifier,
) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		requestRepo:  requestRepo,
		reconciler:   reconciler,
		audit:        newAuditor(auditRepo),
		notifier:     notifier,
	}
}

func (s *shipmentService) CreateLeg(ctx context.Context, actor Actor, req CreateShipmentLegDTO) (*model.ShipmentLeg, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: shipments require a warehouse-capable role", ErrPermission)
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return nil, validationf("request_id", "invalid request id")
	}
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrRequestLocked, request.Status)
	}

	leg := &model.ShipmentLeg{
		RequestID:    requestID,
		Status:       model.ShipmentLegPreparing,
		Carrier:      req.Carrier,
		TrackingCode: req.TrackingCode,
	}
	if err := s.shipmentRepo.Create(ctx, leg); err != nil {
		return nil, fmt.Errorf("failed to create shipment leg: %w", err)
	}

	s.audit.record(ctx, actor, model.ActionCreateShipmentLeg, leg.ID.String(), "", nil, leg)
	return leg, nil
}

func (s *shipmentService) Dispatch(ctx context.Context, actor Actor, legID string) (*model.ShipmentLeg, error) {
	return s.moveLeg(ctx, actor, legID, model.ShipmentLegPreparing, model.ShipmentLegInTransit)
}

func (s *shipmentService) MarkDelivered(ctx context.Context, actor Actor, legID string) (*model.ShipmentLeg, error) {
	return s.moveLeg(ctx, actor, legID, model.ShipmentLegInTransit, model.ShipmentLegDelivered)
}

func (s *shipmentService) moveLeg(ctx context.Context, actor Actor, legID string, from, to model.ShipmentLegStatus) (*model.ShipmentLeg, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleManager, model.RoleWarehouse) {
		return nil, fmt.Errorf("%w: shipments require a warehouse-capable role", ErrPermission)
	}

	id, err := uuid.Parse(legID)
	if err != nil {
		return nil, validationf("id", "invalid shipment leg id")
	}
	leg, err := s.shipmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if leg.Status != from {
		return nil, fmt.Errorf("%w: leg is %s, expected %s", ErrInvalidTransition, leg.Status, from)
	}

	now := time.Now()
	leg.Status = to
	switch to {
	case model.ShipmentLegInTransit:
		leg.DispatchedAt = &now
	case model.ShipmentLegDelivered:
		leg.DeliveredAt = &now
	}
	if err := s.shipmentRepo.Save(ctx, leg); err != nil {
		return nil, fmt.Errorf("failed to update shipment leg: %w", err)
	}

	// Let the reconciler derive the request-level status from the full leg
	// set right away instead of waiting for the next list fetch.
	if request, err := s.requestRepo.FindByID(ctx, leg.RequestID); err == nil {
		s.reconciler.Reconcile(ctx, request)
		notify(s.notifier, "shipment_updated", request.ID.String(), request.Status)
	}

	s.audit.record(ctx, actor, model.ActionUpdateShipmentLeg, leg.ID.String(), "",
		map[string]interface{}{"status": from},
		map[string]interface{}{"status": to})
	return leg, nil
}

func (s *shipmentService) ListByRequest(ctx context.Context, actor Actor, requestID string) ([]model.ShipmentLeg, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, validationf("request_id", "invalid request id")
	}
	return s.shipmentRepo.FindByRequestID(ctx, id)
}
