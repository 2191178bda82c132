package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/catalog"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"github.com/straye-as/rfq-pricing-api/internal/storage"
	"github.com/straye-as/rfq-pricing-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pipeMaterial = "PIPE-6-SCH40"

// countryDuty answers duty lookups from a fixed rate per country
type countryDuty struct {
	mu    sync.Mutex
	rates map[string]string
	calls int
}

func (c *countryDuty) LookupDuty(_ context.Context, q pricing.DutyQuery) (*pricing.DutyInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	rate, ok := c.rates[q.Country]
	if !ok {
		rate = "0"
	}
	return &pricing.DutyInfo{HSCode: q.HSCode, Rate: decimal.RequireFromString(rate), TradeAgreement: "MFN"}, nil
}

type serviceFixture struct {
	db        *gorm.DB
	tenant    *domain.Tenant
	customer  *domain.Customer
	catalog   *catalog.StaticCatalog
	duty      *countryDuty
	store     storage.Storage
	runRepo   *repository.PricingRunRepository
	eventRepo *repository.ApprovalEventRepository

	rfqs      *service.RFQService
	runs      *service.PricingRunService
	approvals *service.ApprovalService
	purge     *service.AdminPurgeService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	m := metrics.New()

	tenant := testutil.CreateTestTenant(t, db, "Nordic Offshore")
	customer := testutil.CreateTestCustomer(t, db, tenant, "Equinor Supply")

	cat := catalog.NewStaticCatalog(
		pricing.CatalogEntry{
			MaterialID: pipeMaterial,
			Category:   domain.CategoryPipe,
			HSCode:     "7304.19",
			Options: []pricing.SupplierOption{
				{Slot: pricing.SlotA, SupplierName: "Tianjin Steel", OriginType: domain.OriginChina, Country: "CN", BaseCost: testutil.D("100"), Certifications: []string{"ISO9001"}},
				{Slot: pricing.SlotB, SupplierName: "Salzgitter", OriginType: domain.OriginNonChina, Country: "DE", BaseCost: testutil.D("120"), Certifications: []string{"ISO9001", "NORSOK"}},
			},
		},
		pricing.CatalogEntry{
			Category: domain.CategoryFitting,
			HSCode:   "7307.93",
			Options: []pricing.SupplierOption{
				{Slot: pricing.SlotA, SupplierName: "Butting", OriginType: domain.OriginNonChina, Country: "DE", BaseCost: testutil.D("10.01")},
			},
		},
	)
	duty := &countryDuty{rates: map[string]string{"CN": "0.25", "DE": "0"}}

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	runRepo := repository.NewPricingRunRepository(db)
	rfqRepo := repository.NewRFQRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	eventRepo := repository.NewApprovalEventRepository(db)
	sources := service.PricingSourceRepos{
		Agreements:      repository.NewAgreementRepository(db),
		PriceAgreements: repository.NewPriceAgreementRepository(db),
		Rules:           repository.NewPricingRuleRepository(db),
		Restrictions:    repository.NewOriginRestrictionRepository(db),
	}
	engine := pricing.NewEngine(cat, duty, pricing.Sources{}, false, m, log)

	return &serviceFixture{
		db:        db,
		tenant:    tenant,
		customer:  customer,
		catalog:   cat,
		duty:      duty,
		store:     store,
		runRepo:   runRepo,
		eventRepo: eventRepo,
		rfqs:      service.NewRFQService(rfqRepo, repository.NewCustomerRepository(db), log),
		runs:      service.NewPricingRunService(db, runRepo, rfqRepo, tenantRepo, sources, engine, m, log),
		approvals: service.NewApprovalService(db, runRepo, eventRepo, store,
			config.ApprovalConfig{RequireFourEyes: true, ArchiveSnapshots: true}, m, log),
		purge: service.NewAdminPurgeService(db, tenantRepo, eventRepo, log),
	}
}

// as returns a request context for a user of the fixture tenant
func (f *serviceFixture) as(name string, roles ...domain.UserRoleType) context.Context {
	return actorContext(f.tenant.ID, name, roles...)
}

func actorContext(tenantID uuid.UUID, name string, roles ...domain.UserRoleType) context.Context {
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      uuid.New(),
		DisplayName: name,
		Email:       name + "@example.com",
		Roles:       roles,
		TenantID:    tenantID,
	})
	return auth.WithTenant(ctx, tenantID)
}

func (f *serviceFixture) estimator() context.Context {
	return f.as("estimator", domain.RoleEstimator)
}

func (f *serviceFixture) manager() context.Context {
	return f.as("manager", domain.RolePricingManager)
}

func (f *serviceFixture) anyOriginRule(t *testing.T, markup, logistics, risk string) *domain.ClientPricingRule {
	t.Helper()
	return testutil.CreateTestRule(t, f.db, f.tenant, nil, domain.OriginAny, domain.CategoryAny, markup, logistics, risk)
}

func (f *serviceFixture) pipeRFQ(t *testing.T, quantity string, certifications ...string) *domain.RFQ {
	t.Helper()
	return testutil.CreateTestRFQ(t, f.db, f.tenant, f.customer, testutil.RFQLine{
		MaterialID:     testutil.Ptr(pipeMaterial),
		Category:       domain.CategoryPipe,
		Quantity:       quantity,
		Certifications: certifications,
	})
}

// lockedAndSubmitted prices rfq and moves the run to pending_approval
func (f *serviceFixture) lockedAndSubmitted(t *testing.T, submitter context.Context, rfq *domain.RFQ) *domain.PricingRunDTO {
	t.Helper()
	run, err := f.runs.CreatePricingRun(submitter, rfq.ID)
	require.NoError(t, err)
	_, err = f.approvals.Lock(submitter, run.ID)
	require.NoError(t, err)
	run, err = f.approvals.Submit(submitter, run.ID, &domain.SubmitPricingRunRequest{})
	require.NoError(t, err)
	return run
}
