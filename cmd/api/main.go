package main

import (
	"log"
	"os"

	_ "requisition-backend/api/swagger" // swagger docs
	"requisition-backend/internal/database"
	"requisition-backend/internal/handler"
	"requisition-backend/internal/middleware"
	"requisition-backend/internal/repository"
	"requisition-backend/internal/service"
	"requisition-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Requisition Management API
// @version         1.0
// @description     Internal requisition and supply-chain backend: requisitions, purchases, shipments, and unit budgets.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	itemRepo := repository.NewItemRepository(db)
	stockRepo := repository.NewStockRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	reconciler := service.NewReconciler(requestRepo, purchaseRepo, shipmentRepo)
	userService := service.NewUserService(userRepo, unitRepo)
	unitService := service.NewUnitService(unitRepo, stockRepo, itemRepo, auditRepo)
	supplierService := service.NewSupplierService(supplierRepo, auditRepo)
	catalogService := service.NewCatalogService(itemRepo)
	requestService := service.NewRequestService(requestRepo, unitRepo, itemRepo, reconciler, txManager, auditRepo)
	budgetService := service.NewBudgetService(budgetRepo, requestRepo, unitRepo, txManager, auditRepo)
	lifecycleService := service.NewLifecycleService(requestRepo, purchaseRepo, budgetRepo, budgetService, txManager, auditRepo, wsHub)
	analysisService := service.NewAnalysisService(requestRepo, purchaseRepo, stockRepo, itemRepo, txManager, auditRepo)
	purchaseService := service.NewPurchaseService(purchaseRepo, requestRepo, supplierRepo, unitRepo, txManager, auditRepo)
	shipmentService := service.NewShipmentService(shipmentRepo, requestRepo, reconciler, auditRepo, wsHub)
	auditService := service.NewAuditService(auditRepo)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	unitHandler := handler.NewUnitHandler(unitService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	itemHandler := handler.NewItemHandler(catalogService)
	requestHandler := handler.NewRequestHandler(requestService, lifecycleService, analysisService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	unitHandler.RegisterRoutes(router.Group(""))
	supplierHandler.RegisterRoutes(router.Group(""))
	itemHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	purchaseHandler.RegisterRoutes(router.Group(""))
	shipmentHandler.RegisterRoutes(router.Group(""))
	budgetHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
