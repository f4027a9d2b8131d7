package service

import (
	"fmt"

	"requisition-backend/internal/model"
)

// Action is a user- or system-initiated lifecycle operation on a request
type Action string

const (
	ActionAnalyze        Action = "analyze"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionStartPreparing Action = "start_preparing"
	ActionMarkError      Action = "mark_error"
	ActionResolveError   Action = "resolve_error"
	ActionCancel         Action = "cancel"
	ActionFinalize       Action = "finalize"
)

// guardFunc checks whether the actor may perform a transition on a request.
// Guards cover role and unit-scope only; operation-specific validation
// (rejection reason, item prices) lives with the operation.
type guardFunc func(actor Actor, req *model.Request) error

func roleGuard(roles ...string) guardFunc {
	return func(actor Actor, req *model.Request) error {
		if !actor.HasRole(roles...) {
			return fmt.Errorf("%w: role %q may not perform this action", ErrPermission, actor.Role)
		}
		return nil
	}
}

// finalizeGuard allows admins, managers, and the requesting unit's own
// administrative operator.
func finalizeGuard(actor Actor, req *model.Request) error {
	if actor.HasRole(model.RoleAdmin, model.RoleManager) {
		return nil
	}
	if actor.Role == model.RoleUnitAdmin && actor.UnitID != nil && *actor.UnitID == req.RequestingUnitID {
		return nil
	}
	return fmt.Errorf("%w: finalization requires admin, manager, or the requesting unit's administrator", ErrPermission)
}

type transition struct {
	next  model.RequestStatus
	guard guardFunc
}

// transitionTable is the single source of truth for legal (state, action)
// pairs. Lookups for pairs not in the table fail with ErrInvalidTransition;
// there is no string comparison anywhere else.
var transitionTable = map[model.RequestStatus]map[Action]transition{
	model.RequestStatusRequested: {
		ActionAnalyze:   {model.RequestStatusAnalyzing, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionApprove:   {model.RequestStatusApproved, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionReject:    {model.RequestStatusRejected, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionMarkError: {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionCancel:    {model.RequestStatusCanceled, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleUnitAdmin)},
	},
	model.RequestStatusAnalyzing: {
		ActionApprove:   {model.RequestStatusApproved, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionReject:    {model.RequestStatusRejected, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionMarkError: {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionCancel:    {model.RequestStatusCanceled, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleUnitAdmin)},
	},
	model.RequestStatusApproved: {
		ActionStartPreparing: {model.RequestStatusPreparing, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionMarkError:      {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionCancel:         {model.RequestStatusCanceled, roleGuard(model.RoleAdmin, model.RoleManager)},
	},
	model.RequestStatusPendingPurchase: {
		ActionMarkError: {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionCancel:    {model.RequestStatusCanceled, roleGuard(model.RoleAdmin, model.RoleManager)},
	},
	model.RequestStatusPreparing: {
		ActionMarkError: {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionCancel:    {model.RequestStatusCanceled, roleGuard(model.RoleAdmin, model.RoleManager)},
	},
	model.RequestStatusShipped: {
		ActionMarkError: {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
	},
	model.RequestStatusReceived: {
		ActionFinalize:  {model.RequestStatusApprovedByUnit, finalizeGuard},
		ActionMarkError: {model.RequestStatusErrorOnRequest, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
	},
	model.RequestStatusErrorOnRequest: {
		ActionResolveError: {model.RequestStatusAnalyzing, roleGuard(model.RoleAdmin, model.RoleManager, model.RoleWarehouse)},
		ActionCancel:       {model.RequestStatusCanceled, roleGuard(model.RoleAdmin, model.RoleManager)},
	},
}

// Resolve returns the target state for (current, action), running the
// transition's guard against the actor. The request is passed for scope
// checks only and is not mutated.
func Resolve(actor Actor, req *model.Request, action Action) (model.RequestStatus, error) {
	actions, ok := transitionTable[req.Status]
	if !ok {
		return "", fmt.Errorf("%w: request is %s", ErrInvalidTransition, req.Status)
	}
	t, ok := actions[action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a request in status %s", ErrInvalidTransition, action, req.Status)
	}
	if err := t.guard(actor, req); err != nil {
		return "", err
	}
	return t.next, nil
}

// ItemsEditable reports whether request items may be modified in the given
// status. Items freeze once fulfillment starts, in error state, and in
// terminal states.
func ItemsEditable(status model.RequestStatus) bool {
	switch status {
	case model.RequestStatusRequested, model.RequestStatusAnalyzing:
		return true
	default:
		return false
	}
}
