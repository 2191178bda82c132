package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

func (r *CustomerRepository) Create(ctx context.Context, scope TenantScope, customer *domain.Customer) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	customer.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, scope TenantScope, id uuid.UUID) (*domain.Customer, error) {
	var customer domain.Customer
	query := scope.Apply(r.db.WithContext(ctx).Where("id = ?", id))
	if err := query.First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
