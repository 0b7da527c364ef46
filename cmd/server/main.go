// Package main is the entry point for the SuccessFuel stock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/config"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/auth"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/delivery"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/inventory"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/projection"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/valuation"
	productdomain "github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	stationdomain "github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	v1 "github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/http/v1"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres/delivery_repo"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres/inventory_repo"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/infrastructure/storage/postgres/ledger_repo"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
	pkgnumerator "github.com/midasconsultingnet/successfuel-api-sub001/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting server", "app", cfg.App.Name, "env", cfg.App.Env)

	// --- Database ---
	dsn := cfg.DB.ConnectionString()

	if err := postgres.Migrate(dsn); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}
	log.Info("database migrations applied")

	poolCfg := postgres.DefaultPoolConfig(dsn)
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = cfg.DB.MaxConns
	}
	if cfg.DB.MinConns > 0 {
		poolCfg.MinConns = cfg.DB.MinConns
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	positionRepo := ledger_repo.NewPositionRepo(txManager)
	countRepo := inventory_repo.NewRepo(txManager)
	deliveryRepo := delivery_repo.NewRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	stationRepo := catalog_repo.NewStationRepo(txManager)

	// --- Services ---
	numeratorService := pkgnumerator.New(pool)

	productService := productdomain.NewService(productRepo, numeratorService)
	stationService := stationdomain.NewService(stationRepo, numeratorService)

	valuationService := valuation.NewService(movementRepo, positionRepo)
	projectionService := projection.NewService(movementRepo)
	ledgerService := ledger.NewService(
		movementRepo,
		productService,
		stationService,
		valuationService,
		txManager,
		cfg.Stock.LockRetries,
	)
	inventoryService := inventory.NewService(
		countRepo,
		productService,
		stationService,
		projectionService,
		valuationService,
		txManager,
		numeratorService,
		inventory.Defaults{
			BoutiqueTolerance: types.NewQuantityFromFloat64(cfg.Stock.BoutiqueTolerance),
			FuelTolerance:     types.NewQuantityFromFloat64(cfg.Stock.FuelTolerance),
		},
	)
	deliveryService := delivery.NewService(
		deliveryRepo,
		ledgerService,
		productService,
		stationService,
		txManager,
		numeratorService,
		types.NewQuantityFromFloat64(cfg.Stock.DeliveryTolerance),
	)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := auth.NewService(userRepo, jwtService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		Pool:             pool,
		Audit:            auditService,
		TokenValidator:   jwtService,
		AuthService:      authService,
		ProductService:   productService,
		StationService:   stationService,
		LedgerService:    ledgerService,
		ValuationService: valuationService,
		ProjectionSvc:    projectionService,
		InventoryService: inventoryService,
		DeliveryService:  deliveryService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
