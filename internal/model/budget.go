package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitBudget is a unit's spending envelope for one period.
// AvailableAmount = AllocatedAmount - UsedAmount; both columns move together
// inside the debit transaction.
type UnitBudget struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit            *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	PeriodStart     time.Time       `gorm:"not null;index" json:"period_start"`
	PeriodEnd       time.Time       `gorm:"not null;index" json:"period_end"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"allocated_amount"`
	UsedAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"used_amount"`
	AvailableAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"available_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (b *UnitBudget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TransactionType enum constants
const (
	TransactionTypeExpense = "expense"
)

// FinancialTransaction is an append-only ledger entry. Rows are never
// updated or deleted after creation.
type FinancialTransaction struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type         string          `gorm:"type:varchar(20);not null;default:'expense'" json:"type"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	RequestID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	UnitBudgetID uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_budget_id"`
	CreatedBy    *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Description  string          `gorm:"type:text" json:"description"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (t *FinancialTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
