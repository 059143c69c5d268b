// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockpile/internal/domain/catalog/material"
	"stockpile/internal/domain/catalog/product"
	"stockpile/internal/domain/catalog/recipe"
	"stockpile/internal/domain/ledger"
	"stockpile/internal/domain/orders/bill"
	"stockpile/internal/domain/orders/inbound"
	"stockpile/internal/domain/orders/outbound"
	"stockpile/internal/domain/production"
	"stockpile/internal/infrastructure/http/v1/handlers"
	"stockpile/internal/infrastructure/http/v1/middleware"
	"stockpile/internal/infrastructure/storage/postgres"
	"stockpile/internal/infrastructure/storage/postgres/catalog_repo"
	"stockpile/internal/infrastructure/storage/postgres/ledger_repo"
	"stockpile/internal/infrastructure/storage/postgres/order_repo"
	"stockpile/internal/infrastructure/storage/postgres/production_repo"
	"stockpile/pkg/logger"
	"stockpile/pkg/numerator"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (used by health checks)
	Pool *postgres.Pool

	// TxManager drives transactions for all repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// Numerator for document number generation
	Numerator *numerator.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	recipeRepo := catalog_repo.NewRecipeRepo(cfg.TxManager)
	stockRepo := ledger_repo.NewStockRepo(cfg.TxManager)
	purchaseOrderRepo := order_repo.NewPurchaseOrderRepo(cfg.TxManager)
	customerOrderRepo := order_repo.NewCustomerOrderRepo(cfg.TxManager)
	billRepo := order_repo.NewBillRepo(cfg.TxManager)
	batchRepo := production_repo.NewBatchRepo(cfg.TxManager)

	// Services. The ledger service is the only writer of product
	// on-hand quantities; order services post deltas through it.
	ledgerService := ledger.NewService(stockRepo, cfg.TxManager)
	productService := product.NewService(productRepo, cfg.Numerator, cfg.TxManager)
	materialService := material.NewService(materialRepo, cfg.Numerator, cfg.TxManager)
	recipeService := recipe.NewService(recipeRepo, cfg.Numerator, cfg.TxManager)
	purchaseOrderService := inbound.NewService(purchaseOrderRepo, ledgerService, cfg.Numerator, cfg.TxManager)
	customerOrderService := outbound.NewService(customerOrderRepo, ledgerService, cfg.Numerator, cfg.TxManager)
	billService := bill.NewService(billRepo, ledgerService, cfg.Numerator, cfg.TxManager)
	productionService := production.NewService(
		batchRepo,
		recipeService,
		materialService,
		ledgerService,
		cfg.Numerator,
		cfg.TxManager,
	)

	// Handlers
	base := handlers.NewBaseHandler()
	productHandler := handlers.NewProductHandler(base, productService)
	materialHandler := handlers.NewMaterialHandler(base, materialService)
	recipeHandler := handlers.NewRecipeHandler(base, recipeService)
	purchaseOrderHandler := handlers.NewPurchaseOrderHandler(base, purchaseOrderService)
	customerOrderHandler := handlers.NewCustomerOrderHandler(base, customerOrderService)
	billHandler := handlers.NewBillHandler(base, billService)
	productionHandler := handlers.NewProductionHandler(base, productionService)
	stockHandler := handlers.NewStockHandler(base, ledgerService)

	// API v1
	api := router.Group("/api/v1")
	{
		catalog := api.Group("/catalog")
		productHandler.RegisterRoutes(catalog.Group("/products"))
		materialHandler.RegisterRoutes(catalog.Group("/materials"))
		recipeHandler.RegisterRoutes(catalog.Group("/recipes"))

		orders := api.Group("/orders")
		purchaseOrderHandler.RegisterRoutes(orders.Group("/purchase"))
		customerOrderHandler.RegisterRoutes(orders.Group("/customer"))
		billHandler.RegisterRoutes(orders.Group("/bills"))

		productionHandler.RegisterRoutes(api.Group("/production"))
		stockHandler.RegisterRoutes(api.Group("/stock"))
	}

	return router
}
