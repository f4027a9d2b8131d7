package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a catalog entry that can be requested, stocked, and purchased
type Item struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitOfMeasure string          `gorm:"type:varchar(30);not null;default:'un'" json:"unit_of_measure"`
	DefaultPrice  decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"default_price"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// CDStock tracks the on-hand quantity of an item at one distribution center
type CDStock struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cd_stock_unit_item" json:"unit_id"`
	Unit      Unit      `gorm:"foreignKey:UnitID" json:"-"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cd_stock_unit_item" json:"item_id"`
	Item      Item      `gorm:"foreignKey:ItemID" json:"-"`
	Quantity  int       `gorm:"type:int;not null;default:0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *CDStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
