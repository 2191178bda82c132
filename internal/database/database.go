package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Models lists every persisted entity in dependency order
func Models() []interface{} {
	return []interface{}{
		&domain.Tenant{},
		&domain.Customer{},
		&domain.RFQ{},
		&domain.RFQItem{},
		&domain.AgreementHeader{},
		&domain.AgreementCondition{},
		&domain.AgreementScale{},
		&domain.ClientPricingRule{},
		&domain.PriceAgreement{},
		&domain.OriginRestriction{},
		&domain.PricingRun{},
		&domain.PricingRunItem{},
		&domain.ApprovalEvent{},
		&domain.AuditPurgeGrant{},
	}
}

// AutoMigrate creates the schema from the models (development and tests only).
// Production schema, including the audit triggers, comes from the goose migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// sqliteAuditGuards mirror the Postgres triggers of the migrations
var sqliteAuditGuards = []string{
	`CREATE TRIGGER IF NOT EXISTS approval_events_no_update
	BEFORE UPDATE ON approval_events
	BEGIN
		SELECT RAISE(ABORT, 'approval_events is append-only');
	END`,
	`CREATE TRIGGER IF NOT EXISTS approval_events_guarded_delete
	BEFORE DELETE ON approval_events
	WHEN NOT EXISTS (
		SELECT 1 FROM audit_purge_grants g
		WHERE g.tenant_id = OLD.tenant_id AND g.pricing_run_id = OLD.pricing_run_id
	)
	BEGIN
		SELECT RAISE(ABORT, 'approval_events delete requires an audit purge grant');
	END`,
	`CREATE TRIGGER IF NOT EXISTS audit_purge_grants_no_update
	BEFORE UPDATE ON audit_purge_grants
	BEGIN
		SELECT RAISE(ABORT, 'audit_purge_grants is append-only');
	END`,
	`CREATE TRIGGER IF NOT EXISTS pricing_run_items_locked_guard
	BEFORE UPDATE ON pricing_run_items
	WHEN (SELECT is_locked FROM pricing_runs WHERE id = OLD.pricing_run_id) = 1
	BEGIN
		SELECT RAISE(ABORT, 'pricing run is locked');
	END`,
}

// InstallSQLiteGuards installs the storage level audit and lock guards on a SQLite database
func InstallSQLiteGuards(db *gorm.DB) error {
	for _, stmt := range sqliteAuditGuards {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install sqlite guard: %w", err)
		}
	}
	return nil
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Ping()
}

// HealthCheckWithStats pings the database and returns its connection pool statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return sqlDB.Stats(), err
	}
	return sqlDB.Stats(), nil
}
