package database

import (
	"log"

	"requisition-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs AutoMigrate for all core models. Split out so the test
// suites can reuse it against the sqlite driver.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Unit{},
		&model.Supplier{},
		&model.Item{},
		&model.CDStock{},
		&model.Request{},
		&model.RequestItem{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.ShipmentLeg{},
		&model.UnitBudget{},
		&model.FinancialTransaction{},
		&model.AuditLog{},
	)
}
