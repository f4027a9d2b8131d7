package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateRequest   = "CREATE_REQUEST"
	ActionUpdateRequest   = "UPDATE_REQUEST"
	ActionDeleteRequest   = "DELETE_REQUEST"
	ActionAnalyzeRequest  = "ANALYZE_REQUEST"
	ActionApproveRequest  = "APPROVE_REQUEST"
	ActionRejectRequest   = "REJECT_REQUEST"
	ActionCancelRequest   = "CANCEL_REQUEST"
	ActionMarkError       = "MARK_REQUEST_ERROR"
	ActionResolveError    = "RESOLVE_REQUEST_ERROR"
	ActionFinalizeRequest = "FINALIZE_REQUEST"

	ActionCreatePurchase = "CREATE_PURCHASE"
	ActionUpdatePurchase = "UPDATE_PURCHASE"

	ActionCreateShipmentLeg = "CREATE_SHIPMENT_LEG"
	ActionUpdateShipmentLeg = "UPDATE_SHIPMENT_LEG"

	ActionCreateBudget   = "CREATE_BUDGET"
	ActionDebitBudget    = "DEBIT_BUDGET"
	ActionCreateSupplier = "CREATE_SUPPLIER"
	ActionUpdateSupplier = "UPDATE_SUPPLIER"
	ActionDeleteSupplier = "DELETE_SUPPLIER"
	ActionCreateUnit     = "CREATE_UNIT"
	ActionUpdateUnit     = "UPDATE_UNIT"
)

// AuditLog tracks Who, What, and When for critical system changes.
// OldValues/NewValues hold JSON snapshots of the mutated fields.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	OldValues  string     `gorm:"type:jsonb" json:"old_values"`
	NewValues  string     `gorm:"type:jsonb" json:"new_values"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
