package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/logger"
	"github.com/straye-as/rfq-pricing-api/internal/mapper"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/money"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PricingSourceRepos are the stored pricing inputs, rebound to the run transaction on every use
type PricingSourceRepos struct {
	Agreements      *repository.AgreementRepository
	PriceAgreements *repository.PriceAgreementRepository
	Rules           *repository.PricingRuleRepository
	Restrictions    *repository.OriginRestrictionRepository
}

func (r PricingSourceRepos) withTx(tx *gorm.DB) pricing.Sources {
	return pricing.Sources{
		Conditions:      r.Agreements.WithTx(tx),
		PriceAgreements: r.PriceAgreements.WithTx(tx),
		Rules:           r.Rules.WithTx(tx),
		Restrictions:    r.Restrictions.WithTx(tx),
	}
}

// PricingRunService aggregates item prices into versioned pricing runs
type PricingRunService struct {
	db         *gorm.DB
	runRepo    *repository.PricingRunRepository
	rfqRepo    *repository.RFQRepository
	tenantRepo *repository.TenantRepository
	sources    PricingSourceRepos
	engine     *pricing.Engine
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewPricingRunService(
	db *gorm.DB,
	runRepo *repository.PricingRunRepository,
	rfqRepo *repository.RFQRepository,
	tenantRepo *repository.TenantRepository,
	sources PricingSourceRepos,
	engine *pricing.Engine,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PricingRunService {
	return &PricingRunService{
		db:         db,
		runRepo:    runRepo,
		rfqRepo:    rfqRepo,
		tenantRepo: tenantRepo,
		sources:    sources,
		engine:     engine,
		metrics:    m,
		logger:     logger,
	}
}

// CreatePricingRun prices every item of an RFQ into a new draft run.
// Items are validated before any work starts. The run and its items are written in one transaction,
// so a single failing item leaves nothing behind.
func (s *PricingRunService) CreatePricingRun(ctx context.Context, rfqID uuid.UUID) (*domain.PricingRunDTO, error) {
	start := time.Now()
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, _ := auth.FromContext(ctx)

	rfq, err := s.rfqRepo.GetByID(ctx, scope, rfqID)
	if err != nil {
		return nil, lookupError(err, domain.ErrRFQNotFound, "rfq")
	}
	if err := validateForPricing(rfq); err != nil {
		s.metrics.RunCreated("invalid", time.Since(start))
		return nil, err
	}

	tenant, err := s.tenantRepo.Get(ctx, scope)
	if err != nil {
		return nil, lookupError(err, domain.ErrTenantNotFound, "tenant")
	}

	var run *domain.PricingRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runRepo := s.runRepo.WithTx(tx)

		current, err := runRepo.GetCurrent(ctx, scope, rfqID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get current pricing run: %w", err)
		}
		if current != nil && current.ApprovalStatus == domain.ApprovalStatusPendingApproval {
			return fmt.Errorf("%w: version %d is pending approval", domain.ErrApprovalStateConflict, current.Version)
		}

		version, err := runRepo.NextVersion(ctx, scope, rfqID)
		if err != nil {
			return fmt.Errorf("failed to determine run version: %w", err)
		}

		run = &domain.PricingRun{
			RFQID:          rfq.ID,
			Version:        version,
			ApprovalStatus: domain.ApprovalStatusDraft,
			Currency:       rfq.Currency,
		}
		if current != nil && current.ApprovalStatus == domain.ApprovalStatusRejected {
			run.SupersedesRunID = &current.ID
		}
		if user != nil {
			run.CreatedByID = user.UserID.String()
			run.CreatedByName = user.DisplayName
		}
		if err := runRepo.Create(ctx, scope, run); err != nil {
			return fmt.Errorf("failed to create pricing run: %w", err)
		}

		return s.priceRun(ctx, tx, scope, tenant, rfq, run)
	})
	if err != nil {
		s.metrics.RunCreated("failed", time.Since(start))
		s.logger.Warn("pricing run failed",
			zap.String("tenant_id", scope.TenantID().String()),
			zap.String("rfq_id", rfqID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RunCreated("success", time.Since(start))
	s.logger.Info("pricing run created",
		zap.String("tenant_id", scope.TenantID().String()),
		zap.String("rfq_id", rfqID.String()),
		zap.String("pricing_run_id", run.ID.String()),
		zap.Int("version", run.Version),
		zap.String("total_price", run.TotalPrice.String()),
		zap.Duration("duration", time.Since(start)),
	)

	dto := mapper.ToPricingRunDTO(run)
	return &dto, nil
}

// RepricePricingRun recomputes a draft run in place against the current agreements, rules and catalog
func (s *PricingRunService) RepricePricingRun(ctx context.Context, runID uuid.UUID) (*domain.PricingRunDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.Get(ctx, scope)
	if err != nil {
		return nil, lookupError(err, domain.ErrTenantNotFound, "tenant")
	}

	var run *domain.PricingRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runRepo := s.runRepo.WithTx(tx)

		run, err = runRepo.GetForUpdate(ctx, scope, runID)
		if err != nil {
			return lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
		}
		if run.IsLocked || run.ApprovalStatus != domain.ApprovalStatusDraft {
			return fmt.Errorf("%w: run %s is %s", domain.ErrLockConflict, run.ID, run.ApprovalStatus)
		}

		rfq, err := s.rfqRepo.WithTx(tx).GetByID(ctx, scope, run.RFQID)
		if err != nil {
			return lookupError(err, domain.ErrRFQNotFound, "rfq")
		}
		if err := validateForPricing(rfq); err != nil {
			return err
		}

		if err := runRepo.DeleteItems(ctx, scope, run.ID); err != nil {
			return fmt.Errorf("failed to clear pricing run items: %w", err)
		}
		return s.priceRun(ctx, tx, scope, tenant, rfq, run)
	})
	if err != nil {
		return nil, err
	}

	logger.ForRun(s.logger, scope.TenantID(), run.ID).Info("pricing run repriced",
		zap.String("total_price", run.TotalPrice.String()),
	)

	dto := mapper.ToPricingRunDTO(run)
	return &dto, nil
}

// priceRun prices and stores every item of rfq under run and writes the run totals
func (s *PricingRunService) priceRun(ctx context.Context, tx *gorm.DB, scope repository.TenantScope, tenant *domain.Tenant, rfq *domain.RFQ, run *domain.PricingRun) error {
	runRepo := s.runRepo.WithTx(tx)
	engine := s.engine.WithSources(s.sources.withTx(tx))

	rc, err := engine.Prepare(ctx, scope, tenant, time.Now().UTC())
	if err != nil {
		return err
	}

	run.Items = make([]domain.PricingRunItem, 0, len(rfq.Items))
	for i := range rfq.Items {
		item, err := engine.PriceItem(ctx, rc, pricing.ItemFromRFQ(rfq, &rfq.Items[i]))
		if err != nil {
			return fmt.Errorf("line %d: %w", rfq.Items[i].LineNumber, err)
		}
		item.PricingRunID = run.ID
		if err := runRepo.CreateItem(ctx, scope, item); err != nil {
			return fmt.Errorf("failed to store line %d: %w", item.LineNumber, err)
		}
		run.Items = append(run.Items, *item)
	}

	run.TotalPrice, run.TotalFinalImportDuty = RunTotals(run.Items, run.Currency)
	if err := runRepo.UpdateTotals(ctx, scope, run.ID, run.TotalPrice, run.TotalFinalImportDuty); err != nil {
		return fmt.Errorf("failed to update pricing run totals: %w", err)
	}
	return nil
}

// RunTotals sums the already rounded item totals and duty amounts of a run
func RunTotals(items []domain.PricingRunItem, currency string) (total, duty decimal.Decimal) {
	totals := make([]decimal.Decimal, len(items))
	duties := make([]decimal.Decimal, len(items))
	for i := range items {
		totals[i] = money.Round(items[i].TotalPrice, currency)
		duties[i] = money.Round(items[i].FinalImportDutyAmount, currency)
	}
	return money.Sum(totals...), money.Sum(duties...)
}

// UpdatePricingRunItem applies a manual quantity or unit price override to an item of a draft run
func (s *PricingRunService) UpdatePricingRunItem(ctx context.Context, runID, itemID uuid.UUID, req *domain.UpdatePricingRunItemRequest) (*domain.PricingRunDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	verr := domain.NewValidationError()
	if req.Quantity == nil && req.UnitPrice == nil {
		verr.Add("quantity", "quantity or unitPrice is required")
	}
	if req.Quantity != nil && !req.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than zero")
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		verr.Add("unitPrice", "must not be negative")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var run *domain.PricingRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runRepo := s.runRepo.WithTx(tx)

		locked, err := runRepo.GetForUpdate(ctx, scope, runID)
		if err != nil {
			return lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
		}
		if locked.IsLocked {
			return fmt.Errorf("%w: run %s is %s", domain.ErrLockConflict, locked.ID, locked.ApprovalStatus)
		}

		item, err := runRepo.GetItem(ctx, scope, runID, itemID)
		if err != nil {
			return lookupError(err, domain.ErrRunItemNotFound, "pricing run item")
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		item.ManuallyAdjusted = true
		pricing.Recalculate(item)

		if err := runRepo.UpdateItem(ctx, scope, item); err != nil {
			return err
		}

		run, err = runRepo.GetByID(ctx, scope, runID)
		if err != nil {
			return lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
		}
		run.TotalPrice, run.TotalFinalImportDuty = RunTotals(run.Items, run.Currency)
		return runRepo.UpdateTotals(ctx, scope, run.ID, run.TotalPrice, run.TotalFinalImportDuty)
	})
	if err != nil {
		return nil, err
	}

	logger.ForRun(s.logger, scope.TenantID(), runID).Info("pricing run item adjusted",
		zap.String("item_id", itemID.String()),
	)

	dto := mapper.ToPricingRunDTO(run)
	return &dto, nil
}

func (s *PricingRunService) GetPricingRun(ctx context.Context, runID uuid.UUID) (*domain.PricingRunDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	run, err := s.runRepo.GetByID(ctx, scope, runID)
	if err != nil {
		return nil, lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
	}
	dto := mapper.ToPricingRunDTO(run)
	return &dto, nil
}

// GetCurrentPricingRun returns the highest version run of an RFQ with its items
func (s *PricingRunService) GetCurrentPricingRun(ctx context.Context, rfqID uuid.UUID) (*domain.PricingRunDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	current, err := s.runRepo.GetCurrent(ctx, scope, rfqID)
	if err != nil {
		return nil, lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
	}
	run, err := s.runRepo.GetByID(ctx, scope, current.ID)
	if err != nil {
		return nil, lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
	}
	dto := mapper.ToPricingRunDTO(run)
	return &dto, nil
}

// ListPricingRuns returns a page of runs without items, newest first
func (s *PricingRunService) ListPricingRuns(ctx context.Context, filter repository.PricingRunFilter, page, pageSize int) (*domain.PaginatedResponse, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	runs, total, err := s.runRepo.List(ctx, scope, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing runs: %w", err)
	}

	page, pageSize, _ = repository.Pagination(page, pageSize)
	dtos := make([]domain.PricingRunDTO, len(runs))
	for i := range runs {
		dtos[i] = mapper.ToPricingRunDTO(&runs[i])
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
