package service

import (
	"github.com/google/uuid"

	"requisition-backend/internal/model"
)

// Actor carries the identity and scope of whoever performs an operation.
// Services never read user identity from ambient state; every lifecycle,
// ledger, and resolver call takes an explicit Actor.
type Actor struct {
	ID     uuid.UUID
	Role   string
	UnitID *uuid.UUID
}

// BoundTo reports whether the actor is scoped to the given unit.
// Admins and managers are unscoped and pass for any unit.
func (a Actor) BoundTo(unitID uuid.UUID) bool {
	if a.Role == model.RoleAdmin || a.Role == model.RoleManager {
		return true
	}
	return a.UnitID != nil && *a.UnitID == unitID
}

// HasRole reports whether the actor's role is one of the given roles
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
