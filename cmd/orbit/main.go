package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/app"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/auth"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/customers"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/dashboard"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/inventory"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/observability"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/cache"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/platform/db"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/products"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/rbac"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/sales"
	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
	"github.com/Tech-Craft-Resources/orbit-engine/jobs"
	"github.com/Tech-Craft-Resources/orbit-engine/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.MigrateOnStart {
		migrator, err := db.NewMigrator(migrations.FS, cfg.PGDSN, logger)
		if err != nil {
			logger.Error("init migrator", slog.Any("error", err))
			os.Exit(1)
		}
		if err := migrator.Up(); err != nil {
			logger.Error("migrate up", slog.Any("error", err))
			os.Exit(1)
		}
		if err := migrator.Close(); err != nil {
			logger.Warn("migrator close", slog.Any("error", err))
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// The dashboard falls back to uncached reads when redis is unavailable.
	var dashCache *dashboard.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	} else {
		dashCache = dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
		defer closeRedis(redisClient, logger)
	}

	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTokenTTL,
	})
	if err != nil {
		logger.Error("init tokens", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{Logger: logger}
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	ledger := inventory.NewLedger()

	invalidator := dashboard.Invalidator{Cache: dashCache}
	metricHooks := app.MetricsHooks{Metrics: metrics}
	movementHooks := inventory.Hooks{invalidator, metricHooks}
	saleHooks := sales.EventHooks{invalidator, metricHooks}

	authService := auth.NewService(auth.NewRepository(dbpool), tokens)
	authHandler := auth.NewHandler(logger, authService)

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), ledger, auditLogger, movementHooks, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	productService := products.NewService(products.NewRepository(dbpool), ledger, movementHooks, logger)
	productHandler := products.NewHandler(logger, productService, inventoryService, rbacMiddleware)

	customerRepo := customers.NewRepository(dbpool)
	customerHandler := customers.NewHandler(logger, customers.NewService(customerRepo), rbacMiddleware)

	saleService := sales.NewService(sales.NewRepository(dbpool), customerRepo, sales.Options{
		Ledger:      ledger,
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
		Movements:   movementHooks,
		Events:      saleHooks,
		Logger:      logger,
	})
	saleHandler := sales.NewHandler(logger, saleService, rbacMiddleware)

	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), dashCache, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Verifier:         tokens,
		AuthHandler:      authHandler,
		ProductsHandler:  productHandler,
		CustomersHandler: customerHandler,
		InventoryHandler: inventoryHandler,
		SalesHandler:     saleHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		RBACMiddleware:   rbacMiddleware,
		Metrics:          metrics,
		Health:           dbpool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
