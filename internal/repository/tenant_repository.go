package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// TenantRepository reads tenant settings. Tenants are provisioned outside this service.
type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) WithTx(tx *gorm.DB) *TenantRepository {
	return &TenantRepository{db: tx}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

// Get returns the tenant the scope belongs to
func (r *TenantRepository) Get(ctx context.Context, scope TenantScope) (*domain.Tenant, error) {
	if !scope.Valid() {
		return nil, domain.ErrTenantIsolationViolation
	}
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", scope.TenantID()).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByID is used by administrative tooling that already holds an AdminScope
func (r *TenantRepository) GetByID(ctx context.Context, _ AdminScope, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
