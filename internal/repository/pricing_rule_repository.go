package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// PricingRuleRepository reads V1 client pricing rules
type PricingRuleRepository struct {
	db *gorm.DB
}

func NewPricingRuleRepository(db *gorm.DB) *PricingRuleRepository {
	return &PricingRuleRepository{db: db}
}

func (r *PricingRuleRepository) WithTx(tx *gorm.DB) *PricingRuleRepository {
	return &PricingRuleRepository{db: tx}
}

func (r *PricingRuleRepository) Create(ctx context.Context, scope TenantScope, rule *domain.ClientPricingRule) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	rule.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(rule).Error
}

// ListCandidates returns every active rule that can apply to the client and category:
// client specific or global, for the category or ANY. Ranking happens in the pricer.
func (r *PricingRuleRepository) ListCandidates(ctx context.Context, scope TenantScope, clientID uuid.UUID, category domain.MaterialCategory) ([]domain.ClientPricingRule, error) {
	var rules []domain.ClientPricingRule
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(client_id = ? OR client_id IS NULL)", clientID).
		Where("category IN ?", []string{string(category), domain.CategoryAny})
	query = scope.Apply(query)
	err := query.Order("created_at DESC").Order("id ASC").Find(&rules).Error
	return rules, err
}
