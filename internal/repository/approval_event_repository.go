package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
)

// ApprovalEventRepository is the append-only approval history store.
// It exposes no update method. Deletion requires an AdminScope and a recorded purge grant.
type ApprovalEventRepository struct {
	db *gorm.DB
}

func NewApprovalEventRepository(db *gorm.DB) *ApprovalEventRepository {
	return &ApprovalEventRepository{db: db}
}

func (r *ApprovalEventRepository) WithTx(tx *gorm.DB) *ApprovalEventRepository {
	return &ApprovalEventRepository{db: tx}
}

// Append inserts a new event
func (r *ApprovalEventRepository) Append(ctx context.Context, scope TenantScope, event *domain.ApprovalEvent) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	event.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByRun returns the history of a run in the order it happened
func (r *ApprovalEventRepository) ListByRun(ctx context.Context, scope TenantScope, runID uuid.UUID) ([]domain.ApprovalEvent, error) {
	var events []domain.ApprovalEvent
	query := r.db.WithContext(ctx).Where("pricing_run_id = ?", runID)
	query = scope.Apply(query)
	err := query.Order("created_at ASC").Order("id ASC").Find(&events).Error
	return events, err
}

// RecordPurgeGrant stores the grant that the storage level delete guard checks for
func (r *ApprovalEventRepository) RecordPurgeGrant(ctx context.Context, admin AdminScope, grant *domain.AuditPurgeGrant) error {
	if !admin.Valid() {
		return domain.ErrPurgeNotAllowed
	}
	grant.Actor = admin.Actor()
	grant.Environment = admin.Environment()
	return r.db.WithContext(ctx).Create(grant).Error
}

// DeleteByRun removes the events of a run covered by grant
func (r *ApprovalEventRepository) DeleteByRun(ctx context.Context, admin AdminScope, grant *domain.AuditPurgeGrant) (int64, error) {
	if !admin.Valid() {
		return 0, domain.ErrPurgeNotAllowed
	}
	ctx = domain.WithPurgeGrant(ctx, grant.ID)
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND pricing_run_id = ?", grant.TenantID, grant.PricingRunID).
		Delete(&domain.ApprovalEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge approval events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
