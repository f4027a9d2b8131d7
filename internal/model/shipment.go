package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShipmentLegStatus is the closed set of shipment-leg states
type ShipmentLegStatus string

const (
	ShipmentLegPreparing ShipmentLegStatus = "preparing"
	ShipmentLegInTransit ShipmentLegStatus = "in_transit"
	ShipmentLegDelivered ShipmentLegStatus = "delivered"
)

// ShipmentLeg tracks one physical transit of items for a request. A request
// may ship in multiple legs; the request-level status is derived from the
// full set of legs by the reconciler.
type ShipmentLeg struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"request_id"`
	Status       ShipmentLegStatus `gorm:"type:varchar(20);not null;default:'preparing';index" json:"status"`
	Carrier      string            `gorm:"type:varchar(255)" json:"carrier"`
	TrackingCode string            `gorm:"type:varchar(100)" json:"tracking_code"`
	DispatchedAt *time.Time        `json:"dispatched_at"`
	DeliveredAt  *time.Time        `json:"delivered_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (l *ShipmentLeg) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
