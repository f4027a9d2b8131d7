package service

import (
	"context"
	"encoding/json"
	"log"

	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"
)

// auditor writes audit entries on a best-effort basis. A failed audit write
// never rolls back the operation it describes; it is logged and dropped.
type auditor struct {
	repo repository.AuditRepository
}

func newAuditor(repo repository.AuditRepository) *auditor {
	return &auditor{repo: repo}
}

func (a *auditor) record(ctx context.Context, actor Actor, action, entityID, entityName string, oldValues, newValues interface{}) {
	if a == nil || a.repo == nil {
		return
	}

	oldJSON, _ := json.Marshal(oldValues)
	newJSON, _ := json.Marshal(newValues)

	userID := actor.ID
	entry := &model.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		OldValues:  string(oldJSON),
		NewValues:  string(newJSON),
	}
	if err := a.repo.Log(ctx, entry); err != nil {
		log.Printf("audit write failed (non-fatal): action=%s entity=%s: %v", action, entityID, err)
	}
}
