package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestStatus is the closed set of request lifecycle states. Transitions
// between them are owned by the service-layer transition table; nothing else
// may invent status strings.
type RequestStatus string

const (
	RequestStatusRequested       RequestStatus = "requested"
	RequestStatusAnalyzing       RequestStatus = "analyzing"
	RequestStatusApproved        RequestStatus = "approved"
	RequestStatusPendingPurchase RequestStatus = "approved_pending_purchase"
	RequestStatusRejected        RequestStatus = "rejected"
	RequestStatusPreparing       RequestStatus = "preparing"
	RequestStatusShipped         RequestStatus = "shipped"
	RequestStatusReceived        RequestStatus = "received"
	RequestStatusApprovedByUnit  RequestStatus = "approved_by_unit"
	RequestStatusErrorOnRequest  RequestStatus = "error_on_request"
	RequestStatusCanceled        RequestStatus = "canceled"
)

// Terminal reports whether no further mutation of the request is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApprovedByUnit || s == RequestStatusCanceled
}

// Priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Request is an internal requisition from a unit to a distribution center
type Request struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestingUnitID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"requesting_unit_id"`
	RequestingUnit        *Unit           `gorm:"foreignKey:RequestingUnitID" json:"requesting_unit,omitempty"`
	CDUnitID              uuid.UUID       `gorm:"type:uuid;not null;index" json:"cd_unit_id"`
	CDUnit                *Unit           `gorm:"foreignKey:CDUnitID" json:"cd_unit,omitempty"`
	RequesterID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"requester_id"`
	Requester             *User           `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Priority              string          `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	Status                RequestStatus   `gorm:"type:varchar(30);not null;default:'requested';index" json:"status"`
	Notes                 string          `gorm:"type:text" json:"notes"`
	TotalEstimatedCost    decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"total_estimated_cost"`
	BudgetConsumed        bool            `gorm:"default:false" json:"budget_consumed"`
	BudgetConsumptionDate *time.Time      `json:"budget_consumption_date"`
	RejectionReason       string          `gorm:"type:text" json:"rejection_reason"`
	ApprovedBy            *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver              *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt            *time.Time      `json:"approved_at"`
	Items                 []RequestItem   `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RequestItem is one line of a request. CDStockAvailable is a snapshot taken
// during analysis; nil means "not checked" or "not applicable" for the actor
// who ran the analysis, never zero stock.
type RequestItem struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"request_id"`
	ItemID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	Item                *Item            `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	QuantityRequested   int              `gorm:"type:int;not null" json:"quantity_requested"`
	QuantityApproved    *int             `gorm:"type:int" json:"quantity_approved"`
	CDStockAvailable    *int             `gorm:"type:int" json:"cd_stock_available"`
	NeedsPurchase       bool             `gorm:"default:false" json:"needs_purchase"`
	NeedsPurchaseManual bool             `gorm:"default:false" json:"needs_purchase_manual"` // human override latch
	UnitPrice           *decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"`
	HasError            bool             `gorm:"default:false" json:"has_error"`
	ErrorDescription    string           `gorm:"type:text" json:"error_description"`
	Notes               string           `gorm:"type:text" json:"notes"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func (i *RequestItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
