package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// RFQRepository stores RFQs handed off by ingestion
type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

func (r *RFQRepository) WithTx(tx *gorm.DB) *RFQRepository {
	return &RFQRepository{db: tx}
}

// Create inserts the RFQ together with its items, stamping the tenant on every row
func (r *RFQRepository) Create(ctx context.Context, scope TenantScope, rfq *domain.RFQ) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	rfq.TenantID = scope.TenantID()
	for i := range rfq.Items {
		rfq.Items[i].TenantID = scope.TenantID()
	}
	return r.db.WithContext(ctx).Create(rfq).Error
}

// GetByID returns the RFQ with items ordered by line number
func (r *RFQRepository) GetByID(ctx context.Context, scope TenantScope, id uuid.UUID) (*domain.RFQ, error) {
	var rfq domain.RFQ
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return scope.Apply(db).Order("line_number ASC")
		}).
		Where("id = ?", id)
	query = scope.Apply(query)
	if err := query.First(&rfq).Error; err != nil {
		return nil, err
	}
	return &rfq, nil
}
