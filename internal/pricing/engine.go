package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/money"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"go.uber.org/zap"
)

// Item is the engine's view of one RFQ line
type Item struct {
	TenantID               uuid.UUID
	RFQItemID              uuid.UUID
	LineNumber             int
	CustomerID             uuid.UUID
	MaterialID             *string
	Category               domain.MaterialCategory
	Quantity               decimal.Decimal
	RequestedOrigin        *domain.OriginType
	ProjectType            *string
	Currency               string
	RequiredCertifications []string
}

// ItemFromRFQ flattens an RFQ line together with its header fields
func ItemFromRFQ(rfq *domain.RFQ, line *domain.RFQItem) Item {
	return Item{
		TenantID:               rfq.TenantID,
		RFQItemID:              line.ID,
		LineNumber:             line.LineNumber,
		CustomerID:             rfq.CustomerID,
		MaterialID:             line.MaterialID,
		Category:               line.Category,
		Quantity:               line.Quantity,
		RequestedOrigin:        line.RequestedOrigin,
		ProjectType:            rfq.ProjectType,
		Currency:               rfq.Currency,
		RequiredCertifications: []string(line.RequiredCertifications),
	}
}

// Sources are the stored pricing inputs the engine reads
type Sources struct {
	Conditions      ConditionSource
	PriceAgreements PriceAgreementSource
	Rules           RuleSource
	Restrictions    RestrictionSource
}

// RunContext holds what is loaded once per pricing run
type RunContext struct {
	Scope    repository.TenantScope
	Tenant   *domain.Tenant
	Pipeline *Pipeline
	Now      time.Time
}

// Engine prices single items: V2 agreement, then legacy agreement, then rules with origin comparison
type Engine struct {
	catalog    CatalogProvider
	sources    Sources
	agreements *AgreementResolver
	legacy     *LegacyAgreementMatcher
	rules      *RulePricer
	origins    *OriginSelector
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewEngine wires the resolver chain
func NewEngine(catalog CatalogProvider, duty DutyProvider, sources Sources, degradedDuty bool, m *metrics.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:    catalog,
		sources:    sources,
		agreements: NewAgreementResolver(sources.Conditions, m, logger),
		legacy:     NewLegacyAgreementMatcher(sources.PriceAgreements),
		rules:      NewRulePricer(sources.Rules),
		origins:    NewOriginSelector(duty, degradedDuty, m, logger),
		metrics:    m,
		logger:     logger,
	}
}

// WithSources returns an engine reading from other sources, typically transaction bound repositories
func (e *Engine) WithSources(sources Sources) *Engine {
	clone := *e
	clone.sources = sources
	clone.agreements = NewAgreementResolver(sources.Conditions, e.metrics, e.logger)
	clone.legacy = NewLegacyAgreementMatcher(sources.PriceAgreements)
	clone.rules = NewRulePricer(sources.Rules)
	return &clone
}

// Prepare loads the per run state
func (e *Engine) Prepare(ctx context.Context, scope repository.TenantScope, tenant *domain.Tenant, now time.Time) (*RunContext, error) {
	pipeline, err := LoadPipeline(ctx, scope, e.sources.Restrictions)
	if err != nil {
		return nil, err
	}
	return &RunContext{Scope: scope, Tenant: tenant, Pipeline: pipeline, Now: now}, nil
}

// PriceItem prices one line. The returned item is not persisted.
func (e *Engine) PriceItem(ctx context.Context, rc *RunContext, item Item) (*domain.PricingRunItem, error) {
	if !rc.Scope.Owns(item.TenantID) {
		return nil, fmt.Errorf("%w: item %s", domain.ErrTenantIsolationViolation, item.RFQItemID)
	}

	entry, err := e.catalog.Lookup(ctx, item.TenantID, CatalogQuery{MaterialID: item.MaterialID, Category: item.Category})
	if err != nil {
		if errors.Is(err, domain.ErrCatalogLookupFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: line %d: %v", domain.ErrCatalogLookupFailure, item.LineNumber, err)
	}

	options := entry.CheapestByOrigin()
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: line %d has no priced supplier option", domain.ErrCatalogLookupFailure, item.LineNumber)
	}
	permitted, allowed, denials, _ := rc.Pipeline.Allowed(subjectOf(item), options)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: line %d: %s", domain.ErrNoAllowedOrigin, item.LineNumber, strings.Join(denials, "; "))
	}
	option := agreementOption(permitted, item.RequestedOrigin, rc.Tenant.PreferredOrigin())
	sourcing := agreementSourcing{option: option, allowed: allowed, denials: denials}

	match, err := e.agreements.Resolve(ctx, rc.Scope, item, option.BaseCost, rc.Now)
	if err != nil {
		return nil, err
	}
	if match != nil {
		result := newRunItem(item, entry, option, match.UnitPrice, domain.PricingMethodAgreementV2)
		result.AgreementConditionID = &match.Condition.ID
		reason := "negotiated agreement condition"
		if match.Condition.Header != nil {
			reason = fmt.Sprintf("negotiated agreement %s", match.Condition.Header.AgreementCode)
		}
		if err := e.applyAgreementDuty(ctx, item, entry, sourcing, result, reason); err != nil {
			return nil, err
		}
		e.metrics.ItemPriced(string(result.PricingMethod))
		return result, nil
	}

	legacy, err := e.legacy.Match(ctx, rc.Scope, item, rc.Now)
	if err != nil {
		return nil, err
	}
	if legacy != nil {
		result := newRunItem(item, entry, option, legacy.UnitPrice, domain.PricingMethodAgreementV1)
		result.PriceAgreementID = &legacy.Agreement.ID
		if err := e.applyAgreementDuty(ctx, item, entry, sourcing, result, "legacy price agreement"); err != nil {
			return nil, err
		}
		e.metrics.ItemPriced(string(result.PricingMethod))
		return result, nil
	}

	rules, err := e.rules.Candidates(ctx, rc.Scope, item.CustomerID, item.Category)
	if err != nil {
		return nil, err
	}
	selection, err := e.origins.Select(ctx, SelectionInput{
		Item:            item,
		Entry:           entry,
		Rules:           rules,
		Pipeline:        rc.Pipeline,
		PreferredOrigin: rc.Tenant.PreferredOrigin(),
	})
	if err != nil {
		return nil, err
	}

	chosen := selection.Selected
	result := newRunItem(item, entry, chosen.Option, chosen.Breakdown.UnitPrice, domain.PricingMethodRuleBased)
	result.PricingRuleID = &chosen.Rule.ID
	result.MarkupPct = chosen.Breakdown.MarkupPct
	result.LogisticsPct = chosen.Breakdown.LogisticsPct
	result.RiskPct = chosen.Breakdown.RiskPct
	result.MarkupAmount = chosen.Breakdown.MarkupAmount
	result.LogisticsCost = chosen.Breakdown.LogisticsCost
	result.RiskCost = chosen.Breakdown.RiskCost
	result.AllowedOrigins = originStrings(selection.AllowedOrigins)
	result.RecommendedOrigin = selection.Recommended
	result.RecommendationReason = selection.Reason
	applyDuty(result, chosen.Duty, chosen.DutyPerUnit, chosen.DutyDegraded)

	e.metrics.ItemPriced(string(result.PricingMethod))
	return result, nil
}

// agreementSourcing is the restriction checked origin an agreement priced item ships from
type agreementSourcing struct {
	option  SupplierOption
	allowed []domain.OriginType
	denials []string
}

func (e *Engine) applyAgreementDuty(ctx context.Context, item Item, entry *CatalogEntry, sourcing agreementSourcing, result *domain.PricingRunItem, reason string) error {
	option := sourcing.option
	duty, degraded, err := e.origins.LookupDuty(ctx, item, entry, option)
	if err != nil {
		return err
	}
	if len(sourcing.denials) > 0 {
		reason = fmt.Sprintf("%s, only %s allowed: %s", reason, strings.Join(originStrings(sourcing.allowed), ", "), strings.Join(sourcing.denials, "; "))
	}
	result.AllowedOrigins = originStrings(sourcing.allowed)
	result.RecommendedOrigin = option.OriginType
	result.RecommendationReason = reason
	applyDuty(result, *duty, money.RoundUnit(option.BaseCost.Mul(duty.Rate)), degraded)
	return nil
}

func newRunItem(item Item, entry *CatalogEntry, option SupplierOption, unitPrice decimal.Decimal, method domain.PricingMethod) *domain.PricingRunItem {
	return &domain.PricingRunItem{
		TenantID:        item.TenantID,
		RFQItemID:       item.RFQItemID,
		LineNumber:      item.LineNumber,
		Quantity:        item.Quantity,
		Currency:        item.Currency,
		UnitPrice:       unitPrice,
		TotalPrice:      money.LineTotal(unitPrice, item.Quantity, item.Currency),
		BaseCost:        option.BaseCost,
		PricingMethod:   method,
		OriginType:      option.OriginType,
		SupplierName:    option.SupplierName,
		CountryOfOrigin: option.Country,
		HSCode:          entry.HSCode,
	}
}

func applyDuty(result *domain.PricingRunItem, duty DutyInfo, perUnit decimal.Decimal, degraded bool) {
	if duty.HSCode != "" {
		result.HSCode = duty.HSCode
	}
	result.TradeAgreement = duty.TradeAgreement
	result.FinalImportDutyRate = duty.Rate
	result.FinalImportDutyAmount = money.Round(perUnit.Mul(result.Quantity), result.Currency)
	result.LandedUnitCost = result.UnitPrice.Add(perUnit)
	result.DutyDegraded = degraded
}

// agreementOption picks the supplier option an agreement priced item is sourced from among the
// allowed options: the requested origin, then the tenant's preferred origin, then the cheapest option.
func agreementOption(options map[domain.OriginType]SupplierOption, requested *domain.OriginType, preferred domain.OriginType) SupplierOption {
	if requested != nil {
		if opt, ok := options[*requested]; ok {
			return opt
		}
	}
	if opt, ok := options[preferred]; ok {
		return opt
	}

	origins := make([]domain.OriginType, 0, len(options))
	for origin := range options {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool {
		a, b := options[origins[i]], options[origins[j]]
		if !a.BaseCost.Equal(b.BaseCost) {
			return a.BaseCost.LessThan(b.BaseCost)
		}
		return origins[i] < origins[j]
	})
	return options[origins[0]]
}

func originStrings(origins []domain.OriginType) []string {
	out := make([]string, len(origins))
	for i, o := range origins {
		out[i] = string(o)
	}
	return out
}

// Recalculate refreshes the derived amounts of an item after its quantity or unit price changed
func Recalculate(item *domain.PricingRunItem) {
	perUnit := money.RoundUnit(item.BaseCost.Mul(item.FinalImportDutyRate))
	item.UnitPrice = money.RoundUnit(item.UnitPrice)
	item.TotalPrice = money.LineTotal(item.UnitPrice, item.Quantity, item.Currency)
	item.FinalImportDutyAmount = money.Round(perUnit.Mul(item.Quantity), item.Currency)
	item.LandedUnitCost = item.UnitPrice.Add(perUnit)
}
