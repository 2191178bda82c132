package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/database"
	"github.com/straye-as/rfq-pricing-api/internal/datawarehouse"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/http/handler"
	"github.com/straye-as/rfq-pricing-api/internal/http/middleware"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/rfq-pricing-api/docs" // Import generated swagger docs
)

const readinessTimeout = 3 * time.Second

// Dependencies are the optional backends reported by the readiness probe. Nil members are skipped.
type Dependencies struct {
	Redis     *redis.Client
	Warehouse *datawarehouse.Client
}

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	deps              Dependencies
	metrics           *metrics.Metrics
	authMiddleware    *auth.Middleware
	tenantMiddleware  *middleware.TenantMiddleware
	rateLimiter       *middleware.RateLimiter
	rfqHandler        *handler.RFQHandler
	pricingRunHandler *handler.PricingRunHandler
	approvalHandler   *handler.ApprovalHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	deps Dependencies,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	tenantMiddleware *middleware.TenantMiddleware,
	rateLimiter *middleware.RateLimiter,
	rfqHandler *handler.RFQHandler,
	pricingRunHandler *handler.PricingRunHandler,
	approvalHandler *handler.ApprovalHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		deps:              deps,
		metrics:           m,
		authMiddleware:    authMiddleware,
		tenantMiddleware:  tenantMiddleware,
		rateLimiter:       rateLimiter,
		rfqHandler:        rfqHandler,
		pricingRunHandler: pricingRunHandler,
		approvalHandler:   approvalHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger, rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check with pool stats
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", rt.ready)

	if rt.cfg.Server.EnableMetrics && rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.tenantMiddleware.Resolve)
		r.Use(rt.rateLimiter.Limit)

		// RFQs
		r.Route("/rfqs", func(r chi.Router) {
			r.With(rt.require(domain.PermissionRFQWrite)).Post("/", rt.rfqHandler.Create)
			r.With(rt.require(domain.PermissionRFQRead)).Get("/{id}", rt.rfqHandler.GetByID)

			r.With(rt.require(domain.PermissionPricingWrite)).Post("/{id}/pricing-runs", rt.pricingRunHandler.Create)
			r.With(rt.require(domain.PermissionPricingRead)).Get("/{id}/pricing-runs/current", rt.pricingRunHandler.GetCurrent)
		})

		// Pricing runs
		r.Route("/pricing-runs", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rt.require(domain.PermissionPricingRead))
				r.Get("/", rt.pricingRunHandler.List)
				r.Get("/{id}", rt.pricingRunHandler.GetByID)
				r.Get("/{id}/approval-history", rt.approvalHandler.History)
				r.Get("/{id}/snapshot", rt.approvalHandler.Snapshot)
			})

			r.Group(func(r chi.Router) {
				r.Use(rt.require(domain.PermissionPricingWrite))
				r.Post("/{id}/reprice", rt.pricingRunHandler.Reprice)
				r.Patch("/{id}/items/{itemId}", rt.pricingRunHandler.UpdateItem)
				r.Post("/{id}/lock", rt.approvalHandler.Lock)
			})

			// Lifecycle endpoints
			r.With(rt.require(domain.PermissionPricingSubmit)).Post("/{id}/submit", rt.approvalHandler.Submit)
			r.Group(func(r chi.Router) {
				r.Use(rt.require(domain.PermissionPricingApprove))
				r.Post("/{id}/approve", rt.approvalHandler.Approve)
				r.Post("/{id}/reject", rt.approvalHandler.Reject)
			})
		})
	})

	return r
}

func (rt *Router) require(permission domain.PermissionType) func(http.Handler) http.Handler {
	return rt.authMiddleware.RequirePermission(permission)
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	// The duty cache is optional, so an unreachable redis degrades rather than fails readiness
	if rt.deps.Redis != nil {
		if err := rt.deps.Redis.Ping(ctx).Err(); err != nil {
			rt.logger.Warn("Redis health check failed", zap.Error(err))
			checks["redis"] = map[string]interface{}{"status": "degraded", "error": err.Error()}
		} else {
			checks["redis"] = map[string]interface{}{"status": "healthy"}
		}
	}

	if rt.deps.Warehouse != nil {
		status := rt.deps.Warehouse.HealthCheck(ctx)
		checks["warehouse"] = status
		if status.Status == "unhealthy" {
			allHealthy = false
		}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
