package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/grocerypos/backend/docs"
	catalogapp "github.com/grocerypos/backend/internal/application/catalog"
	identityapp "github.com/grocerypos/backend/internal/application/identity"
	inventoryapp "github.com/grocerypos/backend/internal/application/inventory"
	quicksalesapp "github.com/grocerypos/backend/internal/application/quicksales"
	tradeapp "github.com/grocerypos/backend/internal/application/trade"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/auth"
	"github.com/grocerypos/backend/internal/infrastructure/cache"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/grocerypos/backend/internal/infrastructure/logger"
	"github.com/grocerypos/backend/internal/infrastructure/migration"
	"github.com/grocerypos/backend/internal/infrastructure/persistence"
	"github.com/grocerypos/backend/internal/infrastructure/scheduler"
	"github.com/grocerypos/backend/internal/infrastructure/storage"
	strategyinfra "github.com/grocerypos/backend/internal/infrastructure/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/telemetry"
	"github.com/grocerypos/backend/internal/interfaces/http/handler"
	"github.com/grocerypos/backend/internal/interfaces/http/middleware"
	"github.com/grocerypos/backend/internal/interfaces/http/router"
	"github.com/grocerypos/backend/migrations"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Grocery POS API
//	@version		1.0
//	@description	Point of sale backend: catalog, quick-sales sessions, invoices and returns, stock ledger and valuation.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Operator access token. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry first so the logger can tee into the OTLP log pipeline
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, version, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.Logger(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting grocery POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Database with the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbSystem := "postgresql"
	if db.Driver() == persistence.DriverSQLite {
		dbSystem = "sqlite"
	}
	poolMetrics, err := telemetry.InstrumentDatabase(db.DB, telemetry.DBInstrumentation{
		Driver:     dbSystem,
		Trace:      cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, providers.Meter(), log)
	if err != nil {
		log.Warn("Database instrumentation unavailable", zap.Error(err))
	}

	if err := migrateSchema(db, cfg, log); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	returnRepo := persistence.NewGormSalesReturnRepository(db.DB)
	sessionRepo := persistence.NewGormQuickSalesRepository(db.DB)
	operatorRepo := persistence.NewGormOperatorRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Snapshot cache tiers and the reconciliation run lock
	cacheOpts := []cache.FactoryOption{
		cache.WithLogger(log),
		cache.WithLocalFallback(cfg.App.Env != "production"),
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewSnapshotArchive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize snapshot archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare snapshot archive bucket", zap.Error(err), zap.String("bucket", archive.Bucket()))
		}
		cacheOpts = append(cacheOpts, cache.WithArchive(archive))
	}
	backends, err := cache.NewFactory(cfg, cacheOpts...).Build(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}()

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)
	pinHasher := auth.NewPinHasher(cfg.Auth.PinCost)
	var tokenBlacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if client := backends.Redis(); client != nil {
		tokenBlacklist = auth.NewRedisTokenBlacklist(client)
	}

	defaultMethod, err := strategy.ParseCostMethod(cfg.Valuation.DefaultMethod)
	if err != nil {
		log.Fatal("Invalid default valuation method", zap.Error(err))
	}
	strategies, err := strategyinfra.NewRegistryWithDefaults(defaultMethod)
	if err != nil {
		log.Fatal("Failed to register cost strategies", zap.Error(err))
	}

	// Application services
	loc := cfg.Store.Location()
	authService := identityapp.NewAuthService(operatorRepo, pinHasher, jwtService, tokenBlacklist, nil, log)
	operatorService := identityapp.NewOperatorService(operatorRepo, pinHasher, tokenBlacklist,
		cfg.JWT.AccessTokenExpiration, nil, log)
	productService := catalogapp.NewProductService(productRepo, nil, log)
	stockService := inventoryapp.NewStockService(txScope, nil, log)
	ledgerService := inventoryapp.NewLedgerService(productRepo, movementRepo)
	valuationService := inventoryapp.NewValuationService(productRepo, movementRepo, strategies, backends.Snapshots,
		inventoryapp.ValuationOptions{Location: loc, CurrencyScale: cfg.Store.CurrencyScale}, log)
	reconciliationService := inventoryapp.NewReconciliationService(productRepo, movementRepo, txScope,
		backends.RunLock, nil, log)
	postingService := tradeapp.NewPostingService(txScope, productRepo, invoiceRepo, returnRepo,
		tradeapp.PostingOptions{Location: loc, CurrencyScale: cfg.Store.CurrencyScale, ReceiptPrefix: cfg.Store.ReceiptPrefix},
		log)
	sessionManager := quicksalesapp.NewSessionManager(sessionRepo, productRepo, operatorRepo, txScope,
		postingService, pinHasher,
		quicksalesapp.ManagerOptions{Location: loc, CurrencyScale: cfg.Store.CurrencyScale, DefaultScope: cfg.Store.DefaultScope},
		log)

	posMetrics, err := telemetry.NewPOSMetrics(providers.Meter(), telemetry.NewGormStockStatsProvider(db.DB), log)
	if err != nil {
		log.Warn("POS metrics unavailable", zap.Error(err))
	}
	stockService.SetMetrics(posMetrics)
	valuationService.SetMetrics(posMetrics)
	reconciliationService.SetMetrics(posMetrics)
	postingService.SetMetrics(posMetrics)
	sessionManager.SetMetrics(posMetrics)

	if cfg.Auth.BootstrapAdmin != "" {
		created, err := operatorService.BootstrapAdmin(ctx, cfg.Auth.BootstrapAdmin, cfg.Auth.BootstrapPin)
		if err != nil {
			log.Fatal("Failed to bootstrap admin operator", zap.Error(err))
		}
		if created {
			log.Info("Bootstrap admin operator created", zap.String("username", cfg.Auth.BootstrapAdmin))
		}
	}

	if cfg.Reconciliation.OnStartup {
		reconcileOnStartup(ctx, reconciliationService, cfg.Reconciliation, log)
	}

	var nightly *scheduler.DailyTrigger
	if cfg.Scheduler.Enabled {
		nightly = newNightlyTrigger(cfg, reconciliationService, valuationService, log)
		if err := nightly.Start(ctx); err != nil {
			log.Fatal("Failed to start nightly jobs", zap.Error(err))
		}
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.AllowOrigins

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Server span for every request but /health
	// 3. Recovery - Recover from panics, log with request ID
	// 4. Logger - Request logging with trace and request IDs
	// 5. Secure, CORS, BodyLimit
	// 6. HTTPMetrics, Profiling labels
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.Enabled(),
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	engine.Use(middleware.HTTPMetrics(providers.Meter(), log))
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
	defer loginLimiter.Close()

	jwtConfig := middleware.DefaultJWTConfig(jwtService, tokenBlacklist)
	jwtConfig.Logger = log

	checks := []handler.HealthCheck{{
		Name:  "database",
		Check: func(context.Context) error { return db.Ping() },
	}}
	if client := backends.Redis(); client != nil {
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}

	router.RegisterAPI(engine, router.Handlers{
		Auth:       handler.NewAuthHandler(authService, operatorService),
		Operator:   handler.NewOperatorHandler(operatorService),
		Product:    handler.NewProductHandler(productService),
		QuickSales: handler.NewQuickSalesHandler(sessionManager),
		Invoice:    handler.NewInvoiceHandler(postingService),
		Stock:      handler.NewStockHandler(stockService, ledgerService, valuationService, reconciliationService),
		System:     handler.NewSystemHandler(version, checks...),
	}, router.RouteOptions{
		Auth:         middleware.JWTAuthMiddleware(jwtConfig),
		LoginLimiter: loginLimiter,
		After:        []gin.HandlerFunc{middleware.SpanEnricher()},
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if nightly != nil {
		if err := nightly.Stop(shutdownCtx); err != nil {
			log.Warn("Nightly jobs did not stop in time", zap.Error(err))
		}
	}
	if poolMetrics != nil {
		_ = poolMetrics.Unregister()
	}
	if posMetrics != nil {
		_ = posMetrics.Close()
	}
	_ = providers.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}

// migrateSchema applies the embedded migrations on postgres when
// database.auto_migrate is set. SQLite terminals are always auto-migrated
// from the GORM models.
func migrateSchema(db *persistence.Database, cfg *config.Config, log *zap.Logger) error {
	if db.Driver() == persistence.DriverSQLite {
		log.Info("Auto-migrating SQLite schema")
		return persistence.AutoMigrate(db.DB)
	}
	if !cfg.Database.AutoMigrate {
		return nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	// The migrator is not closed: closing it would close the shared pool
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// reconcileOnStartup compares stock_qty with the ledger before traffic is
// accepted. Drift is fatal when FailOnDrift is set and it was not repaired.
func reconcileOnStartup(ctx context.Context, svc *inventoryapp.ReconciliationService, cfg config.ReconciliationConfig, log *zap.Logger) {
	report, err := svc.RunExclusive(ctx, cfg.Repair)
	if err != nil {
		log.Fatal("Startup reconciliation failed", zap.Error(err))
	}
	if report == nil {
		log.Info("Startup reconciliation skipped, another instance holds the lock")
		return
	}
	if report.HasDrift() && !report.Repaired && cfg.FailOnDrift {
		log.Fatal("Stock quantities drifted from the ledger",
			zap.Int("drifts", len(report.Drifts)),
			zap.Int("checked", report.Checked))
	}
}

// newNightlyTrigger schedules reconciliation and the previous day's closing
// valuation snapshot at scheduler.daily_at in the store timezone
func newNightlyTrigger(
	cfg *config.Config,
	reconciliation *inventoryapp.ReconciliationService,
	valuation *inventoryapp.ValuationService,
	log *zap.Logger,
) *scheduler.DailyTrigger {
	hour, minute, err := scheduler.ParseDailySchedule(cfg.Scheduler.DailyAt)
	if err != nil {
		log.Fatal("Invalid scheduler.daily_at", zap.Error(err))
	}
	for _, m := range cfg.Scheduler.SnapshotMethods {
		if _, err := strategy.ParseCostMethod(m); err != nil {
			log.Fatal("Invalid scheduler.snapshot_methods", zap.Error(err))
		}
	}

	triggerCfg := scheduler.DefaultDailyTriggerConfig()
	triggerCfg.Hour = hour
	triggerCfg.Minute = minute
	triggerCfg.Location = cfg.Store.Location()

	jobLog := log.Named("nightly")
	return scheduler.NewDailyTrigger(triggerCfg, nil, jobLog,
		scheduler.ReconciliationJob(reconciliation, cfg.Reconciliation.Repair, jobLog),
		scheduler.SnapshotJob(valuation, cfg.Scheduler.SnapshotMethods),
	)
}
