package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PricingRunFilter narrows run listings
type PricingRunFilter struct {
	RFQID          *uuid.UUID
	ApprovalStatus *domain.ApprovalStatus
}

// PricingRunRepository stores pricing runs and their items.
// Runs are never physically deleted.
type PricingRunRepository struct {
	db *gorm.DB
}

func NewPricingRunRepository(db *gorm.DB) *PricingRunRepository {
	return &PricingRunRepository{db: db}
}

func (r *PricingRunRepository) WithTx(tx *gorm.DB) *PricingRunRepository {
	return &PricingRunRepository{db: tx}
}

func (r *PricingRunRepository) Create(ctx context.Context, scope TenantScope, run *domain.PricingRun) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	run.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(run).Error
}

func (r *PricingRunRepository) CreateItem(ctx context.Context, scope TenantScope, item *domain.PricingRunItem) error {
	if !scope.Valid() {
		return domain.ErrTenantIsolationViolation
	}
	item.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID returns the run with its items ordered by line number
func (r *PricingRunRepository) GetByID(ctx context.Context, scope TenantScope, id uuid.UUID) (*domain.PricingRun, error) {
	var run domain.PricingRun
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return scope.Apply(db).Order("line_number ASC")
		}).
		Where("id = ?", id)
	query = scope.Apply(query)
	if err := query.First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// GetForUpdate reads the run row holding a row lock until the surrounding transaction ends
func (r *PricingRunRepository) GetForUpdate(ctx context.Context, scope TenantScope, id uuid.UUID) (*domain.PricingRun, error) {
	var run domain.PricingRun
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id)
	query = scope.Apply(query)
	if err := query.First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// GetCurrent returns the highest version for an RFQ, breaking ties by newest created_at then id
func (r *PricingRunRepository) GetCurrent(ctx context.Context, scope TenantScope, rfqID uuid.UUID) (*domain.PricingRun, error) {
	var run domain.PricingRun
	query := r.db.WithContext(ctx).Where("rfq_id = ?", rfqID)
	query = scope.Apply(query)
	err := query.
		Order("version DESC").
		Order("created_at DESC").
		Order("id DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// NextVersion returns the version number the next run of an RFQ gets
func (r *PricingRunRepository) NextVersion(ctx context.Context, scope TenantScope, rfqID uuid.UUID) (int, error) {
	var maxVersion int
	query := r.db.WithContext(ctx).Model(&domain.PricingRun{}).Where("rfq_id = ?", rfqID)
	query = scope.Apply(query)
	if err := query.Select("COALESCE(MAX(version), 0)").Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

func (r *PricingRunRepository) List(ctx context.Context, scope TenantScope, filter PricingRunFilter, page, pageSize int) ([]domain.PricingRun, int64, error) {
	var runs []domain.PricingRun
	var total int64

	query := scope.Apply(r.db.WithContext(ctx).Model(&domain.PricingRun{}))
	if filter.RFQID != nil {
		query = query.Where("rfq_id = ?", *filter.RFQID)
	}
	if filter.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filter.ApprovalStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, pageSize, offset := Pagination(page, pageSize)
	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&runs).Error
	return runs, total, err
}

// UpdateLifecycle persists the status columns of a run
func (r *PricingRunRepository) UpdateLifecycle(ctx context.Context, scope TenantScope, run *domain.PricingRun) error {
	query := r.db.WithContext(ctx).Model(&domain.PricingRun{}).Where("id = ?", run.ID)
	query = scope.Apply(query)
	return query.Updates(map[string]interface{}{
		"approval_status": run.ApprovalStatus,
		"is_locked":       run.IsLocked,
		"submitted_by_id": run.SubmittedByID,
		"locked_at":       run.LockedAt,
		"submitted_at":    run.SubmittedAt,
		"decided_at":      run.DecidedAt,
		"snapshot_path":   run.SnapshotPath,
	}).Error
}

// UpdateTotals writes the rolled up totals of a run
func (r *PricingRunRepository) UpdateTotals(ctx context.Context, scope TenantScope, runID uuid.UUID, totalPrice, totalDuty decimal.Decimal) error {
	query := r.db.WithContext(ctx).Model(&domain.PricingRun{}).Where("id = ?", runID)
	query = scope.Apply(query)
	return query.Updates(map[string]interface{}{
		"total_price":             totalPrice,
		"total_final_import_duty": totalDuty,
	}).Error
}

// UpdateItem saves an item of an unlocked run. The is_locked guard makes a concurrent lock win.
func (r *PricingRunRepository) UpdateItem(ctx context.Context, scope TenantScope, item *domain.PricingRunItem) error {
	unlocked := r.db.Model(&domain.PricingRun{}).Select("id").Where("id = ? AND is_locked = ?", item.PricingRunID, false)
	query := r.db.WithContext(ctx).Model(&domain.PricingRunItem{}).
		Where("id = ? AND pricing_run_id IN (?)", item.ID, unlocked)
	query = scope.Apply(query)

	result := query.Select("*").Omit("id", "tenant_id", "pricing_run_id", "created_at").Updates(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrLockConflict
	}
	return nil
}

// DeleteItems removes the items of a draft run before it is repriced
func (r *PricingRunRepository) DeleteItems(ctx context.Context, scope TenantScope, runID uuid.UUID) error {
	query := r.db.WithContext(ctx).Where("pricing_run_id = ?", runID)
	query = scope.Apply(query)
	return query.Delete(&domain.PricingRunItem{}).Error
}

func (r *PricingRunRepository) GetItem(ctx context.Context, scope TenantScope, runID, itemID uuid.UUID) (*domain.PricingRunItem, error) {
	var item domain.PricingRunItem
	query := r.db.WithContext(ctx).Where("id = ? AND pricing_run_id = ?", itemID, runID)
	query = scope.Apply(query)
	if err := query.First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
