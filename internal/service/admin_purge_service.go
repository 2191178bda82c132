package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminPurgeService removes approval history in non-production environments.
// It is wired into the admin CLI only.
type AdminPurgeService struct {
	db         *gorm.DB
	tenantRepo *repository.TenantRepository
	eventRepo  *repository.ApprovalEventRepository
	logger     *zap.Logger
}

func NewAdminPurgeService(db *gorm.DB, tenantRepo *repository.TenantRepository, eventRepo *repository.ApprovalEventRepository, logger *zap.Logger) *AdminPurgeService {
	return &AdminPurgeService{db: db, tenantRepo: tenantRepo, eventRepo: eventRepo, logger: logger}
}

// PurgeRunAuditTrail records a purge grant and deletes the approval events of one run in the same transaction
func (s *AdminPurgeService) PurgeRunAuditTrail(ctx context.Context, admin repository.AdminScope, tenantID, runID uuid.UUID, reason string) (int64, error) {
	if !admin.Valid() {
		return 0, domain.ErrPurgeNotAllowed
	}
	if strings.TrimSpace(reason) == "" {
		verr := domain.NewValidationError()
		verr.Add("reason", "a reason is required to purge approval history")
		return 0, verr
	}
	if _, err := s.tenantRepo.GetByID(ctx, admin, tenantID); err != nil {
		return 0, lookupError(err, domain.ErrTenantNotFound, "tenant")
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.eventRepo.WithTx(tx)
		grant := &domain.AuditPurgeGrant{
			TenantID:     tenantID,
			PricingRunID: runID,
			Reason:       reason,
		}
		if err := events.RecordPurgeGrant(ctx, admin, grant); err != nil {
			return fmt.Errorf("failed to record purge grant: %w", err)
		}
		n, err := events.DeleteByRun(ctx, admin, grant)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Warn("approval history purged",
		zap.String("tenant_id", tenantID.String()),
		zap.String("pricing_run_id", runID.String()),
		zap.String("actor", admin.Actor()),
		zap.String("environment", admin.Environment()),
		zap.Int64("events_deleted", deleted),
		zap.String("reason", reason),
	)
	return deleted, nil
}
