package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// PriceAgreementRepository reads legacy flat price agreements
type PriceAgreementRepository struct {
	db *gorm.DB
}

func NewPriceAgreementRepository(db *gorm.DB) *PriceAgreementRepository {
	return &PriceAgreementRepository{db: db}
}

func (r *PriceAgreementRepository) WithTx(tx *gorm.DB) *PriceAgreementRepository {
	return &PriceAgreementRepository{db: tx}
}

func (r *PriceAgreementRepository) Create(ctx context.Context, scope TenantScope, agreement *domain.PriceAgreement) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	agreement.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(agreement).Error
}

// ListForClient returns released agreements of the client in currency, newest first
func (r *PriceAgreementRepository) ListForClient(ctx context.Context, scope TenantScope, clientID uuid.UUID, currency string) ([]domain.PriceAgreement, error) {
	var agreements []domain.PriceAgreement
	query := r.db.WithContext(ctx).
		Where("client_id = ? AND currency = ? AND status = ?", clientID, currency, domain.AgreementStatusReleased)
	query = scope.Apply(query)
	err := query.Order("created_at DESC").Order("id ASC").Find(&agreements).Error
	return agreements, err
}
