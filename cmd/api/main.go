package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/rfq-pricing-api/docs"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/catalog"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/database"
	"github.com/straye-as/rfq-pricing-api/internal/datawarehouse"
	"github.com/straye-as/rfq-pricing-api/internal/http/handler"
	"github.com/straye-as/rfq-pricing-api/internal/http/middleware"
	"github.com/straye-as/rfq-pricing-api/internal/http/router"
	"github.com/straye-as/rfq-pricing-api/internal/logger"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/straye-as/rfq-pricing-api/internal/regulatory"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"github.com/straye-as/rfq-pricing-api/internal/storage"
	"go.uber.org/zap"
)

// @title RFQ Pricing API
// @version 1.0
// @description Multi-tenant RFQ pricing resolution and approval engine
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for service integrations, sent with X-Tenant-ID
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App, "api")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	} else {
		docs.SwaggerInfo.Host = ""
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var store storage.Storage
	if cfg.Approval.ArchiveSnapshots {
		store, err = storage.NewStorage(&cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		log.Info("Snapshot storage initialized", zap.String("mode", cfg.Storage.Mode))
	}

	m := metrics.New()

	// Catalog: the warehouse when configured, otherwise the static file
	dwClient, err := datawarehouse.NewClient(&cfg.Warehouse, log)
	if err != nil {
		return fmt.Errorf("failed to connect to catalog warehouse: %w", err)
	}
	var catalogProvider pricing.CatalogProvider
	if dwClient != nil {
		catalogProvider = catalog.NewWarehouseCatalog(dwClient, log)
		log.Info("Catalog served from warehouse",
			zap.Int("max_open_conns", cfg.Warehouse.MaxOpenConns),
			zap.Int("query_timeout_seconds", cfg.Warehouse.QueryTimeout),
		)
	} else {
		static, err := catalog.LoadStaticCatalog(cfg.Warehouse.CatalogFile)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		catalogProvider = static
		log.Info("Catalog served from file", zap.String("path", cfg.Warehouse.CatalogFile))
	}

	// Duty lookups, cached in redis when available
	rdb, err := regulatory.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, duty lookups will not be cached", zap.Error(err))
	}
	dutyProvider := regulatory.NewCachedProvider(
		regulatory.NewHTTPClient(&cfg.Regulatory, log),
		rdb,
		cfg.Regulatory.CacheTTLDuration(),
		m,
		log,
	)
	if cfg.Pricing.DegradedDutyMode {
		log.Warn("Degraded duty mode enabled, failed duty lookups are priced at zero duty")
	}

	// Repositories
	tenantRepo := repository.NewTenantRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	rfqRepo := repository.NewRFQRepository(db)
	runRepo := repository.NewPricingRunRepository(db)
	eventRepo := repository.NewApprovalEventRepository(db)
	sourceRepos := service.PricingSourceRepos{
		Agreements:      repository.NewAgreementRepository(db),
		PriceAgreements: repository.NewPriceAgreementRepository(db),
		Rules:           repository.NewPricingRuleRepository(db),
		Restrictions:    repository.NewOriginRestrictionRepository(db),
	}

	engine := pricing.NewEngine(catalogProvider, dutyProvider, pricing.Sources{
		Conditions:      sourceRepos.Agreements,
		PriceAgreements: sourceRepos.PriceAgreements,
		Rules:           sourceRepos.Rules,
		Restrictions:    sourceRepos.Restrictions,
	}, cfg.Pricing.DegradedDutyMode, m, log)

	// Services
	rfqService := service.NewRFQService(rfqRepo, customerRepo, log)
	runService := service.NewPricingRunService(db, runRepo, rfqRepo, tenantRepo, sourceRepos, engine, m, log)
	approvalService := service.NewApprovalService(db, runRepo, eventRepo, store, cfg.Approval, m, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	tenantMiddleware := middleware.NewTenantMiddleware(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	rfqHandler := handler.NewRFQHandler(rfqService, log)
	pricingRunHandler := handler.NewPricingRunHandler(runService, log)
	approvalHandler := handler.NewApprovalHandler(approvalService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		router.Dependencies{Redis: rdb, Warehouse: dwClient},
		m,
		authMiddleware,
		tenantMiddleware,
		rateLimiter,
		rfqHandler,
		pricingRunHandler,
		approvalHandler,
	)

	httpHandler := rt.Setup()
	if timeout := cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		httpHandler = http.TimeoutHandler(httpHandler, timeout, "request timed out")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		closeBackends(log, dwClient, rdb)
		log.Info("Server stopped gracefully")
	}

	return nil
}

func closeBackends(log *zap.Logger, dwClient *datawarehouse.Client, rdb *redis.Client) {
	if dwClient != nil {
		if err := dwClient.Close(); err != nil {
			log.Warn("Error closing catalog warehouse connection", zap.Error(err))
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("Error closing redis connection", zap.Error(err))
		}
	}
}
