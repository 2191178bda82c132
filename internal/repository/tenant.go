package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// TenantScope is the only way to reach tenant owned rows.
// The zero value is invalid and fails every query it is applied to.
type TenantScope struct {
	tenantID uuid.UUID
}

// NewTenantScope creates a scope for a known tenant
func NewTenantScope(tenantID uuid.UUID) (TenantScope, error) {
	if tenantID == uuid.Nil {
		return TenantScope{}, fmt.Errorf("%w: empty tenant id", domain.ErrTenantIsolationViolation)
	}
	return TenantScope{tenantID: tenantID}, nil
}

// ScopeFromContext builds a scope from the tenant verified by the tenant middleware
func ScopeFromContext(ctx context.Context) (TenantScope, error) {
	tenantID, ok := auth.TenantFromContext(ctx)
	if !ok {
		return TenantScope{}, fmt.Errorf("%w: no tenant in request context", domain.ErrTenantIsolationViolation)
	}
	return NewTenantScope(tenantID)
}

// TenantID returns the scoped tenant
func (s TenantScope) TenantID() uuid.UUID {
	return s.tenantID
}

// Valid reports whether the scope names a tenant
func (s TenantScope) Valid() bool {
	return s.tenantID != uuid.Nil
}

// Apply restricts query to the scoped tenant using the given column
func (s TenantScope) Apply(query *gorm.DB) *gorm.DB {
	return s.ApplyColumn(query, "tenant_id")
}

// ApplyColumn restricts query to the scoped tenant using a qualified column name
func (s TenantScope) ApplyColumn(query *gorm.DB, column string) *gorm.DB {
	if !s.Valid() {
		_ = query.AddError(domain.ErrTenantIsolationViolation)
		return query
	}
	return query.Where(column+" = ?", s.tenantID)
}

// Owns reports whether a row with tenantID belongs to this scope
func (s TenantScope) Owns(tenantID uuid.UUID) bool {
	return s.Valid() && s.tenantID == tenantID
}

// AdminScope grants cross-tenant maintenance operations.
// It cannot be derived from a request and is only issued when configuration allows it.
type AdminScope struct {
	environment string
	actor       string
}

// NewAdminScope issues an admin scope for actor when the audit purge capability is enabled
func NewAdminScope(cfg *config.Config, actor string) (AdminScope, error) {
	if !cfg.PurgeAllowed() {
		return AdminScope{}, fmt.Errorf("%w: environment %q", domain.ErrPurgeNotAllowed, cfg.App.Environment)
	}
	if strings.TrimSpace(actor) == "" {
		return AdminScope{}, fmt.Errorf("%w: actor is required", domain.ErrPurgeNotAllowed)
	}
	return AdminScope{environment: cfg.App.Environment, actor: actor}, nil
}

func (a AdminScope) Valid() bool {
	return a.actor != ""
}

func (a AdminScope) Actor() string {
	return a.actor
}

func (a AdminScope) Environment() string {
	return a.environment
}

// Pagination normalizes page and pageSize and returns the row offset
func Pagination(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
