package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/catalog"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/http/handler"
	"github.com/straye-as/rfq-pricing-api/internal/http/middleware"
	"github.com/straye-as/rfq-pricing-api/internal/http/router"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"github.com/straye-as/rfq-pricing-api/internal/storage"
	"github.com/straye-as/rfq-pricing-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	serviceKey   = "ingestion-key"
	pipeMaterial = "PIPE-6-SCH40"
)

// tokenTable resolves bearer tokens to fixed users
type tokenTable map[string]*auth.UserContext

func (t tokenTable) ValidateToken(token string) (*auth.UserContext, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

type flatDuty struct{}

func (flatDuty) LookupDuty(_ context.Context, q pricing.DutyQuery) (*pricing.DutyInfo, error) {
	rate := "0"
	if q.Country == "CN" {
		rate = "0.25"
	}
	return &pricing.DutyInfo{HSCode: q.HSCode, Rate: testutil.D(rate), TradeAgreement: "MFN"}, nil
}

type apiFixture struct {
	server   *httptest.Server
	tenant   *domain.Tenant
	customer *domain.Customer
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	m := metrics.New()

	tenant := testutil.CreateTestTenant(t, db, "Nordic Offshore")
	other := testutil.CreateTestTenant(t, db, "Baltic Yards")
	customer := testutil.CreateTestCustomer(t, db, tenant, "Equinor Supply")
	testutil.CreateTestRule(t, db, tenant, nil, domain.OriginAny, domain.CategoryAny, "0", "0", "0")

	cat := catalog.NewStaticCatalog(pricing.CatalogEntry{
		MaterialID: pipeMaterial,
		Category:   domain.CategoryPipe,
		HSCode:     "7304.19",
		Options: []pricing.SupplierOption{
			{Slot: pricing.SlotA, SupplierName: "Tianjin Steel", OriginType: domain.OriginChina, Country: "CN", BaseCost: testutil.D("100"), Certifications: []string{"ISO9001"}},
			{Slot: pricing.SlotB, SupplierName: "Salzgitter", OriginType: domain.OriginNonChina, Country: "DE", BaseCost: testutil.D("120"), Certifications: []string{"ISO9001", "NORSOK"}},
		},
	})
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		App:       config.AppConfig{Name: "RFQ Pricing API", Environment: "test"},
		Server:    config.ServerConfig{EnableMetrics: true, EnableSwagger: true},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Approval:  config.ApprovalConfig{RequireFourEyes: true, ArchiveSnapshots: true},
	}

	tenantRepo := repository.NewTenantRepository(db)
	rfqRepo := repository.NewRFQRepository(db)
	runRepo := repository.NewPricingRunRepository(db)
	eventRepo := repository.NewApprovalEventRepository(db)
	sources := service.PricingSourceRepos{
		Agreements:      repository.NewAgreementRepository(db),
		PriceAgreements: repository.NewPriceAgreementRepository(db),
		Rules:           repository.NewPricingRuleRepository(db),
		Restrictions:    repository.NewOriginRestrictionRepository(db),
	}
	engine := pricing.NewEngine(cat, flatDuty{}, pricing.Sources{}, false, m, log)

	rfqService := service.NewRFQService(rfqRepo, repository.NewCustomerRepository(db), log)
	runService := service.NewPricingRunService(db, runRepo, rfqRepo, tenantRepo, sources, engine, m, log)
	approvalService := service.NewApprovalService(db, runRepo, eventRepo, store, cfg.Approval, m, log)

	user := func(tenantID uuid.UUID, name string, role domain.UserRoleType) *auth.UserContext {
		return &auth.UserContext{UserID: uuid.New(), DisplayName: name, Roles: []domain.UserRoleType{role}, TenantID: tenantID}
	}
	tokens := tokenTable{
		"estimator":       user(tenant.ID, "Ola Estimator", domain.RoleEstimator),
		"manager":         user(tenant.ID, "Kari Manager", domain.RolePricingManager),
		"viewer":          user(tenant.ID, "Per Viewer", domain.RoleViewer),
		"other-estimator": user(other.ID, "Anna Estimator", domain.RoleEstimator),
	}

	rt := router.NewRouter(
		cfg,
		log,
		db,
		router.Dependencies{},
		m,
		auth.NewMiddlewareWithValidator(tokens, serviceKey, log),
		middleware.NewTenantMiddleware(log),
		middleware.NewRateLimiter(&cfg.RateLimit, log),
		handler.NewRFQHandler(rfqService, log),
		handler.NewPricingRunHandler(runService, log),
		handler.NewApprovalHandler(approvalService, log),
	)

	srv := httptest.NewServer(rt.Setup())
	t.Cleanup(srv.Close)
	return &apiFixture{server: srv, tenant: tenant, customer: customer}
}

// do sends a request as token. A token equal to serviceKey authenticates with the API key.
func (f *apiFixture) do(t *testing.T, token, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	switch token {
	case "":
	case serviceKey:
		req.Header.Set("x-api-key", serviceKey)
		req.Header.Set(auth.TenantHeader, f.tenant.ID.String())
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (f *apiFixture) createRFQ(t *testing.T) domain.RFQDTO {
	t.Helper()
	resp := f.do(t, serviceKey, http.MethodPost, "/api/v1/rfqs", map[string]interface{}{
		"customerId": f.customer.ID,
		"reference":  "RFQ-2024-0042",
		"currency":   "USD",
		"items": []map[string]interface{}{{
			"lineNumber":             1,
			"materialId":             pipeMaterial,
			"category":               "pipe",
			"quantity":               "5",
			"unit":                   "m",
			"requiredCertifications": []string{"NORSOK"},
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rfq := decode[domain.RFQDTO](t, resp)
	assert.Equal(t, "/api/v1/rfqs/"+rfq.ID.String(), resp.Header.Get("Location"))
	return rfq
}

func TestRouter_PricingAndApprovalLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	rfq := f.createRFQ(t)
	require.Len(t, rfq.Items, 1)

	resp := f.do(t, "estimator", http.MethodPost, "/api/v1/rfqs/"+rfq.ID.String()+"/pricing-runs", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	run := decode[domain.PricingRunDTO](t, resp)
	assert.Equal(t, domain.ApprovalStatusDraft, run.ApprovalStatus)
	assert.Equal(t, "600.00", run.TotalPrice.StringFixed(2))
	require.Len(t, run.Items, 1)
	assert.Equal(t, domain.PricingMethodRuleBased, run.Items[0].PricingMethod)
	assert.Equal(t, domain.OriginNonChina, run.Items[0].OriginType)

	runPath := "/api/v1/pricing-runs/" + run.ID.String()

	resp = f.do(t, "viewer", http.MethodGet, "/api/v1/rfqs/"+rfq.ID.String()+"/pricing-runs/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, run.ID, decode[domain.PricingRunDTO](t, resp).ID)

	resp = f.do(t, "estimator", http.MethodPatch, runPath+"/items/"+run.Items[0].ID.String(), map[string]string{"unitPrice": "130"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "650.00", decode[domain.PricingRunDTO](t, resp).TotalPrice.StringFixed(2))

	resp = f.do(t, "estimator", http.MethodPost, runPath+"/lock", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.PricingRunDTO](t, resp).IsLocked)

	resp = f.do(t, "estimator", http.MethodPatch, runPath+"/items/"+run.Items[0].ID.String(), map[string]string{"unitPrice": "1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = f.do(t, "estimator", http.MethodPost, runPath+"/reprice", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, "estimator", http.MethodPost, runPath+"/submit", map[string]string{"comment": "ready"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ApprovalStatusPendingApproval, decode[domain.PricingRunDTO](t, resp).ApprovalStatus)

	// estimators hold no approve permission
	resp = f.do(t, "estimator", http.MethodPost, runPath+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, "manager", http.MethodPost, runPath+"/reject", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, "manager", http.MethodPost, runPath+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ApprovalStatusApproved, decode[domain.PricingRunDTO](t, resp).ApprovalStatus)

	resp = f.do(t, "manager", http.MethodPost, runPath+"/approve", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, "viewer", http.MethodGet, runPath+"/approval-history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]domain.ApprovalEventDTO](t, resp)
	require.Len(t, history, 3)
	assert.Equal(t, domain.ApprovalEventLocked, history[0].EventType)
	assert.Equal(t, domain.ApprovalEventSubmitted, history[1].EventType)
	assert.Equal(t, domain.ApprovalEventApproved, history[2].EventType)

	resp = f.do(t, "viewer", http.MethodGet, runPath+"/snapshot", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snapshot := decode[service.RunSnapshot](t, resp)
	assert.Equal(t, run.ID, snapshot.Run.ID)
	assert.Len(t, snapshot.History, 3)
}

func TestRouter_ListPricingRuns(t *testing.T) {
	f := newAPIFixture(t)
	rfq := f.createRFQ(t)
	resp := f.do(t, "estimator", http.MethodPost, "/api/v1/rfqs/"+rfq.ID.String()+"/pricing-runs", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs?status=draft&rfqId="+rfq.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[domain.PaginatedResponse](t, resp)
	assert.Equal(t, int64(1), page.Total)

	resp = f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs?status=approved", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), decode[domain.PaginatedResponse](t, resp).Total)

	resp = f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs?rfqId=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Permissions(t *testing.T) {
	f := newAPIFixture(t)
	rfq := f.createRFQ(t)
	pricePath := "/api/v1/rfqs/" + rfq.ID.String() + "/pricing-runs"

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		want   int
	}{
		{"viewer cannot price", "viewer", http.MethodPost, pricePath, http.StatusForbidden},
		{"manager cannot ingest rfqs", "manager", http.MethodPost, "/api/v1/rfqs", http.StatusForbidden},
		{"viewer reads rfq", "viewer", http.MethodGet, "/api/v1/rfqs/" + rfq.ID.String(), http.StatusOK},
		{"service prices", serviceKey, http.MethodPost, pricePath, http.StatusCreated},
		{"unauthenticated", "", http.MethodGet, "/api/v1/pricing-runs", http.StatusUnauthorized},
		{"unknown token", "forged", http.MethodGet, "/api/v1/pricing-runs", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, tt.token, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRouter_TenantIsolation(t *testing.T) {
	f := newAPIFixture(t)
	rfq := f.createRFQ(t)

	// another tenant's user sees nothing
	resp := f.do(t, "other-estimator", http.MethodGet, "/api/v1/rfqs/"+rfq.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = f.do(t, "other-estimator", http.MethodPost, "/api/v1/rfqs/"+rfq.ID.String()+"/pricing-runs", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// a token cannot be pointed at another tenant through the header
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/rfqs/"+rfq.ID.String(), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer other-estimator")
	req.Header.Set(auth.TenantHeader, f.tenant.ID.String())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_ErrorResponses(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("invalid id", func(t *testing.T) {
		resp := f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown run", func(t *testing.T) {
		resp := f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		apiErr := decode[domain.APIError](t, resp)
		assert.Equal(t, domain.ErrorTypeNotFound, apiErr.Type)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})

	t.Run("rfq validation", func(t *testing.T) {
		resp := f.do(t, serviceKey, http.MethodPost, "/api/v1/rfqs", map[string]interface{}{
			"customerId": f.customer.ID,
			"currency":   "USD",
			"items": []map[string]interface{}{{
				"lineNumber": 1,
				"category":   "pipe",
				"quantity":   "0",
				"unit":       "m",
			}},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		apiErr := decode[domain.APIError](t, resp)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "items[0].quantity")
	})

	t.Run("unknown customer", func(t *testing.T) {
		resp := f.do(t, serviceKey, http.MethodPost, "/api/v1/rfqs", map[string]interface{}{
			"customerId": uuid.New(),
			"currency":   "USD",
			"items": []map[string]interface{}{{
				"lineNumber": 1,
				"category":   "pipe",
				"quantity":   "1",
				"unit":       "m",
			}},
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("snapshot before approval", func(t *testing.T) {
		rfq := f.createRFQ(t)
		resp := f.do(t, "estimator", http.MethodPost, "/api/v1/rfqs/"+rfq.ID.String()+"/pricing-runs", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		run := decode[domain.PricingRunDTO](t, resp)

		resp = f.do(t, "viewer", http.MethodGet, "/api/v1/pricing-runs/"+run.ID.String()+"/snapshot", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/health", "/health/db", "/health/ready", "/metrics", "/swagger/doc.json"} {
		t.Run(path, func(t *testing.T) {
			resp := f.do(t, "", http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}

	resp := f.do(t, "", http.MethodGet, "/health/ready", nil)
	body := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body["checks"], "database")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
