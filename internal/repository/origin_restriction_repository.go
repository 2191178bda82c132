package repository

import (
	"context"

	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// OriginRestrictionRepository reads the tables behind the origin restriction checks
type OriginRestrictionRepository struct {
	db *gorm.DB
}

func NewOriginRestrictionRepository(db *gorm.DB) *OriginRestrictionRepository {
	return &OriginRestrictionRepository{db: db}
}

func (r *OriginRestrictionRepository) WithTx(tx *gorm.DB) *OriginRestrictionRepository {
	return &OriginRestrictionRepository{db: tx}
}

func (r *OriginRestrictionRepository) Create(ctx context.Context, scope TenantScope, restriction *domain.OriginRestriction) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	restriction.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(restriction).Error
}

// ListActive returns the active restrictions of one kind
func (r *OriginRestrictionRepository) ListActive(ctx context.Context, scope TenantScope, kind domain.RestrictionKind) ([]domain.OriginRestriction, error) {
	var restrictions []domain.OriginRestriction
	query := r.db.WithContext(ctx).Where("kind = ? AND is_active = ?", kind, true)
	query = scope.Apply(query)
	err := query.Order("created_at ASC").Find(&restrictions).Error
	return restrictions, err
}
