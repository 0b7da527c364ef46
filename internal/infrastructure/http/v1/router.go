// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/auth"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/delivery"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/inventory"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/projection"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/valuation"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/handlers"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// RouterConfig holds the wired services for the router.
type RouterConfig struct {
	Logger *logger.Logger
	Pool   *postgres.Pool
	Audit  *postgres.AuditService

	TokenValidator middleware.TokenValidator

	AuthService      *auth.Service
	ProductService   *product.Service
	StationService   *station.Service
	LedgerService    *ledger.Service
	ValuationService *valuation.Service
	ProjectionSvc    *projection.Service
	InventoryService *inventory.Service
	DeliveryService  *delivery.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		// Auth: login is public, account management requires a token.
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)
		publicAuth := api.Group("/auth")
		protectedAuth := api.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.TokenValidator))
		authHandler.RegisterRoutes(publicAuth, protectedAuth)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.TokenValidator))
		protected.Use(middleware.RequireStationAccess())

		registerCatalogRoutes(protected, baseHandler, cfg)
		registerStockRoutes(protected, baseHandler, cfg)
		registerInventoryRoutes(protected, baseHandler, cfg)
		registerDeliveryRoutes(protected, baseHandler, cfg)

		auditHandler := handlers.NewAuditHandler(baseHandler, cfg.Audit)
		protected.GET("/audit/:entityType/:id", middleware.RequireRole(auth.RoleManager), auditHandler.EntityHistory)
	}

	return router
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")

	productHandler := handlers.NewProductHandler(base, cfg.ProductService)
	products := catalogs.Group("/products")
	{
		products.POST("", middleware.RequireRole(auth.RoleManager), productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", middleware.RequireRole(auth.RoleManager), productHandler.Update)
	}

	stationHandler := handlers.NewStationHandler(base, cfg.StationService)
	stations := catalogs.Group("/stations")
	{
		stations.POST("", middleware.RequireRole(auth.RoleManager), stationHandler.Create)
		stations.GET("", stationHandler.List)
		stations.GET("/:stationId", stationHandler.Get)
		stations.POST("/:stationId/tanks", middleware.RequireRole(auth.RoleManager), stationHandler.CreateTank)
		stations.GET("/:stationId/tanks", stationHandler.ListTanks)
	}
}

// registerStockRoutes registers stock ledger, valuation and projection
// endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewStockHandler(base, cfg.LedgerService, cfg.ValuationService, cfg.ProjectionSvc, cfg.Audit)

	stock := rg.Group("/stock")
	{
		stock.POST("/movements", middleware.RequireRole(auth.RoleManager, auth.RolePompiste), handler.AppendMovement)
		stock.GET("/movements", handler.History)
		stock.GET("/movements/:id", handler.GetMovement)
		stock.POST("/movements/:id/cancel", middleware.RequireRole(auth.RoleManager), handler.CancelMovement)
		stock.POST("/opening-balances", middleware.RequireRole(auth.RoleManager), handler.ImportOpeningBalances)

		stock.GET("/position", handler.GetPosition)
		stock.GET("/cost", handler.GetCost)
		stock.GET("/quantity", handler.GetQuantity)
		stock.GET("/turnover", handler.GetTurnover)
	}
}

// registerInventoryRoutes registers inventory count endpoints.
func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewInventoryHandler(base, cfg.InventoryService, cfg.Audit)

	inv := rg.Group("/inventory")
	{
		inv.POST("/counts", middleware.RequireRole(auth.RoleManager, auth.RolePompiste), handler.SubmitCount)
		inv.GET("/counts", handler.ListCounts)
		inv.GET("/counts/:id", handler.GetCount)
		inv.POST("/counts/:id/transition", middleware.RequireRole(auth.RoleManager), handler.Transition)
		inv.POST("/counts/:id/classify", middleware.RequireRole(auth.RoleManager), handler.Classify)
		inv.GET("/counts/:id/variance", handler.GetVariance)
		inv.GET("/variances", handler.ListVariances)
	}
}

// registerDeliveryRoutes registers fuel delivery endpoints.
func registerDeliveryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewDeliveryHandler(base, cfg.DeliveryService, cfg.Audit)

	deliveries := rg.Group("/deliveries")
	{
		deliveries.POST("", middleware.RequireRole(auth.RoleManager), handler.Order)
		deliveries.GET("", handler.List)
		deliveries.GET("/compensations", middleware.RequireRole(auth.RoleManager, auth.RoleAccountant), handler.ListCompensations)
		deliveries.GET("/:id", handler.Get)
		deliveries.POST("/:id/receive", middleware.RequireRole(auth.RoleManager, auth.RolePompiste), handler.Receive)
		deliveries.POST("/:id/check", middleware.RequireRole(auth.RoleManager, auth.RoleAccountant), handler.Check)
		deliveries.GET("/:id/compensation", handler.GetCompensation)
	}
}
