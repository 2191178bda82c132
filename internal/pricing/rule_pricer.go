package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/money"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
)

// RuleSource lists the active V1 rules that may apply to a client and category
type RuleSource interface {
	ListCandidates(ctx context.Context, scope repository.TenantScope, clientID uuid.UUID, category domain.MaterialCategory) ([]domain.ClientPricingRule, error)
}

// RuleQuery is what a rule is matched against
type RuleQuery struct {
	ClientID    uuid.UUID
	Category    domain.MaterialCategory
	Origin      domain.OriginType
	ProjectType *string
}

// Breakdown is the rule based cost build-up of one unit
type Breakdown struct {
	BaseCost      decimal.Decimal
	MarkupPct     decimal.Decimal
	LogisticsPct  decimal.Decimal
	RiskPct       decimal.Decimal
	MarkupAmount  decimal.Decimal
	LogisticsCost decimal.Decimal
	RiskCost      decimal.Decimal
	UnitPrice     decimal.Decimal
}

// ComputeBreakdown applies the rule percentages additively to baseCost
func ComputeBreakdown(baseCost decimal.Decimal, rule *domain.ClientPricingRule) Breakdown {
	markup := baseCost.Mul(rule.MarkupPct)
	logistics := baseCost.Mul(rule.LogisticsPct)
	risk := baseCost.Mul(rule.RiskPct)
	return Breakdown{
		BaseCost:      baseCost,
		MarkupPct:     rule.MarkupPct,
		LogisticsPct:  rule.LogisticsPct,
		RiskPct:       rule.RiskPct,
		MarkupAmount:  money.RoundUnit(markup),
		LogisticsCost: money.RoundUnit(logistics),
		RiskCost:      money.RoundUnit(risk),
		UnitPrice:     money.RoundUnit(baseCost.Add(markup).Add(logistics).Add(risk)),
	}
}

// RulePricer resolves V1 pricing rules through the fallback tiers
type RulePricer struct {
	source RuleSource
}

func NewRulePricer(source RuleSource) *RulePricer {
	return &RulePricer{source: source}
}

// Candidates loads the rules for one item so several origins can be resolved from one read
func (p *RulePricer) Candidates(ctx context.Context, scope repository.TenantScope, clientID uuid.UUID, category domain.MaterialCategory) ([]domain.ClientPricingRule, error) {
	rules, err := p.source.ListCandidates(ctx, scope, clientID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	return rules, nil
}

// SelectRule returns the first rule hit through the tiers
// client+category, client+ANY, global+category, global+ANY.
// Within a tier an exact origin beats ANY, a matching project type beats none, then newest wins.
func SelectRule(rules []domain.ClientPricingRule, q RuleQuery) (*domain.ClientPricingRule, error) {
	tiers := make([][]domain.ClientPricingRule, 4)
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if rule.OriginType != domain.OriginAny && rule.OriginType != q.Origin {
			continue
		}
		if rule.ProjectType != nil && (q.ProjectType == nil || *rule.ProjectType != *q.ProjectType) {
			continue
		}
		tier := ruleTier(&rule, q)
		if tier < 0 {
			continue
		}
		tiers[tier] = append(tiers[tier], rule)
	}

	for _, tier := range tiers {
		if len(tier) == 0 {
			continue
		}
		sort.SliceStable(tier, func(i, j int) bool {
			a, b := tier[i], tier[j]
			if (a.OriginType == q.Origin) != (b.OriginType == q.Origin) {
				return a.OriginType == q.Origin
			}
			if (a.ProjectType != nil) != (b.ProjectType != nil) {
				return a.ProjectType != nil
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID.String() < b.ID.String()
		})
		return &tier[0], nil
	}

	return nil, fmt.Errorf("%w: client %s, category %s, origin %s", domain.ErrNoApplicableRule, q.ClientID, q.Category, q.Origin)
}

func ruleTier(rule *domain.ClientPricingRule, q RuleQuery) int {
	exactCategory := rule.Category == string(q.Category)
	anyCategory := rule.Category == domain.CategoryAny
	if !exactCategory && !anyCategory {
		return -1
	}

	if rule.ClientID != nil {
		if *rule.ClientID != q.ClientID {
			return -1
		}
		if exactCategory {
			return 0
		}
		return 1
	}
	if exactCategory {
		return 2
	}
	return 3
}
