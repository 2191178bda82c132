package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/money"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OriginCost is the full landed cost of one sourcing origin
type OriginCost struct {
	Origin         domain.OriginType
	Option         SupplierOption
	Rule           *domain.ClientPricingRule
	Breakdown      Breakdown
	Duty           DutyInfo
	DutyPerUnit    decimal.Decimal
	LandedUnitCost decimal.Decimal
	DutyDegraded   bool
}

// Selection is the outcome of the dual origin comparison
type Selection struct {
	Selected       OriginCost
	Recommended    domain.OriginType
	AllowedOrigins []domain.OriginType
	Reason         string
	Verdicts       []Verdict
	// Overridden is set when the requested origin was denied and the recommendation was used
	Overridden bool
}

// SelectionInput carries everything the selector needs for one item
type SelectionInput struct {
	Item            Item
	Entry           *CatalogEntry
	Rules           []domain.ClientPricingRule
	Pipeline        *Pipeline
	PreferredOrigin domain.OriginType
}

// OriginSelector computes per origin landed costs and recommends an origin
type OriginSelector struct {
	duty         DutyProvider
	degradedDuty bool
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewOriginSelector creates a selector. degradedDuty turns duty lookup failures into zero duty
// and must only be enabled outside production.
func NewOriginSelector(duty DutyProvider, degradedDuty bool, m *metrics.Metrics, logger *zap.Logger) *OriginSelector {
	return &OriginSelector{duty: duty, degradedDuty: degradedDuty, metrics: m, logger: logger}
}

// Select prices every allowed origin with its rule and duty and picks one
func (s *OriginSelector) Select(ctx context.Context, in SelectionInput) (*Selection, error) {
	options := in.Entry.CheapestByOrigin()
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: material %s has no priced supplier option", domain.ErrCatalogLookupFailure, in.Entry.MaterialID)
	}

	_, allowed, denials, verdicts := in.Pipeline.Allowed(subjectOf(in.Item), options)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoAllowedOrigin, strings.Join(denials, "; "))
	}

	costs := make([]OriginCost, len(allowed))
	for i, origin := range allowed {
		rule, err := SelectRule(in.Rules, RuleQuery{
			ClientID:    in.Item.CustomerID,
			Category:    in.Item.Category,
			Origin:      origin,
			ProjectType: in.Item.ProjectType,
		})
		if err != nil {
			return nil, err
		}
		option := options[origin]
		costs[i] = OriginCost{
			Origin:    origin,
			Option:    option,
			Rule:      rule,
			Breakdown: ComputeBreakdown(option.BaseCost, rule),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range costs {
		cost := &costs[i]
		g.Go(func() error {
			duty, degraded, err := s.LookupDuty(gctx, in.Item, in.Entry, cost.Option)
			if err != nil {
				return err
			}
			cost.Duty = *duty
			cost.DutyDegraded = degraded
			cost.DutyPerUnit = money.RoundUnit(cost.Option.BaseCost.Mul(duty.Rate))
			cost.LandedUnitCost = cost.Breakdown.UnitPrice.Add(cost.DutyPerUnit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	selection := &Selection{AllowedOrigins: allowed, Verdicts: verdicts}
	recommended := costs[0]
	switch {
	case len(costs) == 1 && len(denials) > 0:
		selection.Reason = fmt.Sprintf("only %s allowed: %s", recommended.Origin, strings.Join(denials, "; "))
	case len(costs) == 1:
		selection.Reason = fmt.Sprintf("%s is the only sourcing origin offered", recommended.Origin)
	default:
		recommended, selection.Reason = compareLanded(costs[0], costs[1], in.PreferredOrigin)
	}
	selection.Recommended = recommended.Origin
	selection.Selected = recommended

	if requested := in.Item.RequestedOrigin; requested != nil && *requested != recommended.Origin {
		if cost, ok := findCost(costs, *requested); ok {
			selection.Selected = cost
		} else {
			selection.Overridden = true
			selection.Reason = fmt.Sprintf("requested %s not available, %s", *requested, selection.Reason)
			s.metrics.OriginOverridden()
		}
	}

	return selection, nil
}

// LookupDuty fetches the duty for one supplier option. In degraded mode a failed lookup yields
// zero duty and degraded=true.
func (s *OriginSelector) LookupDuty(ctx context.Context, item Item, entry *CatalogEntry, option SupplierOption) (*DutyInfo, bool, error) {
	materialID := entry.MaterialID
	if materialID == "" && item.MaterialID != nil {
		materialID = *item.MaterialID
	}

	duty, err := s.duty.LookupDuty(ctx, DutyQuery{
		TenantID:   item.TenantID,
		MaterialID: materialID,
		Category:   item.Category,
		HSCode:     entry.HSCode,
		Country:    option.Country,
		Origin:     option.OriginType,
	})
	if err == nil {
		return duty, false, nil
	}

	if !s.degradedDuty {
		return nil, false, fmt.Errorf("%w: %s from %s: %v", domain.ErrRegulatoryLookupFailure, materialID, option.Country, err)
	}

	s.metrics.DutyLookup("degraded")
	s.logger.Warn("duty lookup failed, using zero duty in degraded mode",
		zap.String("tenant_id", item.TenantID.String()),
		zap.String("rfq_item_id", item.RFQItemID.String()),
		zap.String("material_id", materialID),
		zap.String("country", option.Country),
		zap.Error(err),
	)
	return &DutyInfo{HSCode: entry.HSCode, Rate: decimal.Zero}, true, nil
}

// compareLanded picks the lower landed cost. Equal costs go to preferred.
func compareLanded(a, b OriginCost, preferred domain.OriginType) (OriginCost, string) {
	switch a.LandedUnitCost.Cmp(b.LandedUnitCost) {
	case -1:
		return a, fmt.Sprintf("%s landed cost %s below %s landed cost %s", a.Origin, a.LandedUnitCost, b.Origin, b.LandedUnitCost)
	case 1:
		return b, fmt.Sprintf("%s landed cost %s below %s landed cost %s", b.Origin, b.LandedUnitCost, a.Origin, a.LandedUnitCost)
	}
	winner := a
	if b.Origin == preferred {
		winner = b
	}
	return winner, fmt.Sprintf("landed cost tie at %s, tenant policy prefers %s", a.LandedUnitCost, winner.Origin)
}

func subjectOf(item Item) Subject {
	return Subject{
		CustomerID:             item.CustomerID,
		Category:               item.Category,
		RequiredCertifications: item.RequiredCertifications,
	}
}

func findCost(costs []OriginCost, origin domain.OriginType) (OriginCost, bool) {
	for _, c := range costs {
		if c.Origin == origin {
			return c, true
		}
	}
	return OriginCost{}, false
}
