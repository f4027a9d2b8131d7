package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseStatus is the closed set of purchase-order states. Kept separate
// from RequestStatus and ShipmentLegStatus on purpose.
type PurchaseStatus string

const (
	PurchaseStatusOrderPlaced       PurchaseStatus = "order_placed"
	PurchaseStatusSupplierConfirmed PurchaseStatus = "supplier_confirmed"
	PurchaseStatusInTransit         PurchaseStatus = "in_transit"
	PurchaseStatusFinalized         PurchaseStatus = "finalized"
	PurchaseStatusCanceled          PurchaseStatus = "canceled"
)

// Terminal reports whether the purchase no longer blocks its request.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseStatusFinalized || s == PurchaseStatusCanceled
}

// Purchase is an order placed with a supplier by a distribution center.
// RequestID is set when the purchase was generated to cover a request's
// stock gap; standalone purchases leave it nil.
type Purchase struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  *uuid.UUID      `gorm:"type:uuid;index" json:"request_id"`
	CDUnitID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"cd_unit_id"`
	CDUnit     *Unit           `gorm:"foreignKey:CDUnitID" json:"cd_unit,omitempty"`
	SupplierID *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier   *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Status     PurchaseStatus  `gorm:"type:varchar(30);not null;default:'order_placed';index" json:"status"`
	TotalValue decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"total_value"`
	Notes      string          `gorm:"type:text" json:"notes"`
	Items      []PurchaseItem  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchaseItem is one ordered line within a Purchase
type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	Item       *Item     `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Quantity   int       `gorm:"type:int;not null" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (i *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
