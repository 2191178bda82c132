package pricing_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func originPtr(o domain.OriginType) *domain.OriginType { return &o }

func categoryPtr(c domain.MaterialCategory) *domain.MaterialCategory { return &c }

func mustScope(tenantID uuid.UUID) repository.TenantScope {
	scope, err := repository.NewTenantScope(tenantID)
	if err != nil {
		panic(err)
	}
	return scope
}

// memorySources serves pricing inputs from slices
type memorySources struct {
	conditions   []domain.AgreementCondition
	agreements   []domain.PriceAgreement
	rules        []domain.ClientPricingRule
	restrictions []domain.OriginRestriction
}

func (m *memorySources) ListReleasedConditions(_ context.Context, _ repository.TenantScope, _ uuid.UUID, _ string) ([]domain.AgreementCondition, error) {
	return m.conditions, nil
}

func (m *memorySources) ListForClient(_ context.Context, _ repository.TenantScope, _ uuid.UUID, _ string) ([]domain.PriceAgreement, error) {
	return m.agreements, nil
}

func (m *memorySources) ListCandidates(_ context.Context, _ repository.TenantScope, _ uuid.UUID, _ domain.MaterialCategory) ([]domain.ClientPricingRule, error) {
	return m.rules, nil
}

func (m *memorySources) ListActive(_ context.Context, _ repository.TenantScope, kind domain.RestrictionKind) ([]domain.OriginRestriction, error) {
	var out []domain.OriginRestriction
	for _, r := range m.restrictions {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memorySources) sources() pricing.Sources {
	return pricing.Sources{Conditions: m, PriceAgreements: m, Rules: m, Restrictions: m}
}

// fixedDuty returns a rate per country and counts calls
type fixedDuty struct {
	mu    sync.Mutex
	rates map[string]string
	err   error
	calls int
}

func (f *fixedDuty) LookupDuty(_ context.Context, q pricing.DutyQuery) (*pricing.DutyInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rate, ok := f.rates[q.Country]
	if !ok {
		rate = "0"
	}
	return &pricing.DutyInfo{HSCode: q.HSCode, Rate: d(rate), TradeAgreement: "MFN"}, nil
}

type staticCatalog map[string]pricing.CatalogEntry

func (c staticCatalog) Lookup(_ context.Context, _ uuid.UUID, q pricing.CatalogQuery) (*pricing.CatalogEntry, error) {
	key := string(q.Category)
	if q.MaterialID != nil {
		key = *q.MaterialID
	}
	entry, ok := c[key]
	if !ok {
		return nil, domain.ErrCatalogLookupFailure
	}
	return &entry, nil
}

func globalRule(origin domain.OriginType, category, markup, logistics, risk string) domain.ClientPricingRule {
	return domain.ClientPricingRule{
		BaseModel:    domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
		OriginType:   origin,
		Category:     category,
		MarkupPct:    d(markup),
		LogisticsPct: d(logistics),
		RiskPct:      d(risk),
		IsActive:     true,
	}
}

func releasedHeader(customerID uuid.UUID) *domain.AgreementHeader {
	return &domain.AgreementHeader{
		BaseModel:     domain.BaseModel{ID: uuid.New()},
		CustomerID:    customerID,
		AgreementCode: "AGR-001",
		Currency:      "USD",
		ValidFrom:     time.Now().Add(-48 * time.Hour),
		Status:        domain.AgreementStatusReleased,
	}
}

func condition(header *domain.AgreementHeader, priority int, rateType domain.RateType, rate string, created time.Time) domain.AgreementCondition {
	return domain.AgreementCondition{
		BaseModel:         domain.BaseModel{ID: uuid.New(), CreatedAt: created},
		HeaderID:          header.ID,
		Header:            header,
		ConditionType:     domain.ConditionTypePrice,
		RateType:          rateType,
		RateValue:         d(rate),
		ConditionPriority: priority,
		ValidFrom:         header.ValidFrom,
		Status:            domain.AgreementStatusReleased,
	}
}
