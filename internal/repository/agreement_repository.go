package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// AgreementRepository reads V2 agreement headers, conditions and scales
type AgreementRepository struct {
	db *gorm.DB
}

func NewAgreementRepository(db *gorm.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

func (r *AgreementRepository) WithTx(tx *gorm.DB) *AgreementRepository {
	return &AgreementRepository{db: tx}
}

func (r *AgreementRepository) CreateHeader(ctx context.Context, scope TenantScope, header *domain.AgreementHeader) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	header.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(header).Error
}

// CreateCondition inserts a condition and its scales
func (r *AgreementRepository) CreateCondition(ctx context.Context, scope TenantScope, condition *domain.AgreementCondition) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	condition.TenantID = scope.TenantID()
	for i := range condition.Scales {
		condition.Scales[i].TenantID = scope.TenantID()
	}
	return r.db.WithContext(ctx).Omit("Header").Create(condition).Error
}

// ListReleasedConditions returns released conditions of released headers for the customer in currency.
// Validity windows and condition keys are evaluated by the resolver.
func (r *AgreementRepository) ListReleasedConditions(ctx context.Context, scope TenantScope, customerID uuid.UUID, currency string) ([]domain.AgreementCondition, error) {
	headers := r.db.Model(&domain.AgreementHeader{}).
		Select("id").
		Where("customer_id = ? AND status = ? AND currency = ?", customerID, domain.AgreementStatusReleased, currency)
	headers = scope.Apply(headers)

	var conditions []domain.AgreementCondition
	query := r.db.WithContext(ctx).
		Preload("Header").
		Preload("Scales", func(db *gorm.DB) *gorm.DB {
			return scope.Apply(db).Order("scale_quantity_from ASC")
		}).
		Where("status = ?", domain.AgreementStatusReleased).
		Where("header_id IN (?)", headers)
	query = scope.Apply(query)
	err := query.Find(&conditions).Error
	return conditions, err
}
