package service

import (
	"fmt"
	"testing"

	"requisition-backend/internal/database"
	"requisition-backend/internal/model"
	"requisition-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the repositories against an in-memory sqlite database so the
// service layer can be exercised end to end without a postgres instance.
type testEnv struct {
	db           *gorm.DB
	txManager    repository.TransactionManager
	requestRepo  repository.RequestRepository
	purchaseRepo repository.PurchaseRepository
	shipmentRepo repository.ShipmentRepository
	budgetRepo   repository.BudgetRepository
	stockRepo    repository.StockRepository
	unitRepo     repository.UnitRepository
	itemRepo     repository.ItemRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// A named shared-cache database keeps all pooled connections on the
	// same in-memory store.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return &testEnv{
		db:           db,
		txManager:    repository.NewTransactionManager(db),
		requestRepo:  repository.NewRequestRepository(db),
		purchaseRepo: repository.NewPurchaseRepository(db),
		shipmentRepo: repository.NewShipmentRepository(db),
		budgetRepo:   repository.NewBudgetRepository(db),
		stockRepo:    repository.NewStockRepository(db),
		unitRepo:     repository.NewUnitRepository(db),
		itemRepo:     repository.NewItemRepository(db),
		supplierRepo: repository.NewSupplierRepository(db),
		auditRepo:    repository.NewAuditRepository(db),
	}
}

func (e *testEnv) reconciler() *Reconciler {
	return NewReconciler(e.requestRepo, e.purchaseRepo, e.shipmentRepo)
}

func (e *testEnv) createUnit(t *testing.T, code string, isCD bool) *model.Unit {
	t.Helper()
	unit := &model.Unit{Name: "Unit " + code, Code: code, IsCD: isCD, IsActive: true}
	require.NoError(t, e.db.Create(unit).Error)
	return unit
}

func (e *testEnv) createItem(t *testing.T, code, price string) *model.Item {
	t.Helper()
	item := &model.Item{Code: code, Name: "Item " + code, UnitOfMeasure: "un", DefaultPrice: decimal.RequireFromString(price)}
	require.NoError(t, e.db.Create(item).Error)
	return item
}

func (e *testEnv) createRequest(t *testing.T, requesting, cd *model.Unit, status model.RequestStatus, items ...model.RequestItem) *model.Request {
	t.Helper()
	req := &model.Request{
		RequestingUnitID: requesting.ID,
		CDUnitID:         cd.ID,
		RequesterID:      uuid.New(),
		Priority:         model.PriorityNormal,
		Status:           status,
		Items:            items,
	}
	require.NoError(t, e.db.Create(req).Error)
	return req
}

func (e *testEnv) setStock(t *testing.T, unit *model.Unit, item *model.Item, qty int) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.CDStock{UnitID: unit.ID, ItemID: item.ID, Quantity: qty}).Error)
}

func (e *testEnv) reloadRequest(t *testing.T, id uuid.UUID) *model.Request {
	t.Helper()
	var req model.Request
	require.NoError(t, e.db.Preload("Items").First(&req, "id = ?", id).Error)
	return &req
}

func adminActor() Actor {
	return Actor{ID: uuid.New(), Role: model.RoleAdmin}
}

func financeActor() Actor {
	return Actor{ID: uuid.New(), Role: model.RoleFinance}
}

func warehouseActor(unitID uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: model.RoleWarehouse, UnitID: &unitID}
}

func unitAdminActor(unitID uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: model.RoleUnitAdmin, UnitID: &unitID}
}
