package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/money"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"go.uber.org/zap"
)

// ConditionSource lists the released V2 conditions of a customer
type ConditionSource interface {
	ListReleasedConditions(ctx context.Context, scope repository.TenantScope, customerID uuid.UUID, currency string) ([]domain.AgreementCondition, error)
}

// AgreementMatch is a resolved V2 price
type AgreementMatch struct {
	Condition *domain.AgreementCondition
	UnitPrice decimal.Decimal
	// Rate is the effective rate after scale evaluation
	Rate      decimal.Decimal
	Scaled    bool
	Ambiguous bool
}

// AgreementResolver finds the winning negotiated condition for an item
type AgreementResolver struct {
	source  ConditionSource
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAgreementResolver(source ConditionSource, m *metrics.Metrics, logger *zap.Logger) *AgreementResolver {
	return &AgreementResolver{source: source, metrics: m, logger: logger}
}

// Resolve returns the V2 price for item, or nil when no condition applies.
// baseCost is only used by PERCENT conditions.
func (r *AgreementResolver) Resolve(ctx context.Context, scope repository.TenantScope, item Item, baseCost decimal.Decimal, now time.Time) (*AgreementMatch, error) {
	conditions, err := r.source.ListReleasedConditions(ctx, scope, item.CustomerID, item.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to list agreement conditions: %w", err)
	}

	ranked := RankConditions(conditions, item, now)
	if len(ranked) == 0 {
		return nil, nil
	}

	winner := ranked[0]
	ambiguous := len(ranked) > 1 && sameRank(&ranked[0], &ranked[1])
	if ambiguous {
		r.metrics.AmbiguousResolution()
		r.logger.Warn("agreement resolution tie broken by id",
			zap.Error(domain.ErrAgreementResolutionAmbiguous),
			zap.String("tenant_id", scope.TenantID().String()),
			zap.String("rfq_item_id", item.RFQItemID.String()),
			zap.String("selected_condition_id", winner.ID.String()),
			zap.String("runner_up_condition_id", ranked[1].ID.String()),
			zap.Int("condition_priority", winner.ConditionPriority),
		)
	}

	rate := winner.RateValue
	scaled := false
	if winner.HasScale {
		if tier, ok := EvaluateScale(winner.Scales, item.Quantity); ok {
			rate = tier.Rate
			scaled = true
		} else {
			r.logger.Warn("scaled condition has no tiers, using condition rate",
				zap.String("condition_id", winner.ID.String()),
			)
		}
	}

	unitPrice, err := applyRate(&winner, rate, baseCost)
	if err != nil {
		return nil, err
	}

	return &AgreementMatch{
		Condition: &winner,
		UnitPrice: unitPrice,
		Rate:      rate,
		Scaled:    scaled,
		Ambiguous: ambiguous,
	}, nil
}

// RankConditions filters conditions to the candidates for item and orders them best first:
// priority ascending, then key specificity, then newest, then id.
func RankConditions(conditions []domain.AgreementCondition, item Item, now time.Time) []domain.AgreementCondition {
	candidates := make([]domain.AgreementCondition, 0, len(conditions))
	for _, c := range conditions {
		if isCandidate(&c, item, now) {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.ConditionPriority != b.ConditionPriority {
			return a.ConditionPriority < b.ConditionPriority
		}
		if a.Specificity() != b.Specificity() {
			return a.Specificity() > b.Specificity()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return candidates
}

func sameRank(a, b *domain.AgreementCondition) bool {
	return a.ConditionPriority == b.ConditionPriority &&
		a.Specificity() == b.Specificity() &&
		a.CreatedAt.Equal(b.CreatedAt)
}

func isCandidate(c *domain.AgreementCondition, item Item, now time.Time) bool {
	if c.Status != domain.AgreementStatusReleased || !withinWindow(c.ValidFrom, c.ValidTo, now) {
		return false
	}
	if c.Header != nil {
		if c.Header.Status != domain.AgreementStatusReleased || !withinWindow(c.Header.ValidFrom, c.Header.ValidTo, now) {
			return false
		}
	}
	if c.KeyCustomerID != nil && *c.KeyCustomerID != item.CustomerID {
		return false
	}
	if c.KeyMaterialID != nil && (item.MaterialID == nil || *c.KeyMaterialID != *item.MaterialID) {
		return false
	}
	if c.KeyMaterialGroup != nil && *c.KeyMaterialGroup != item.Category {
		return false
	}
	return true
}

// withinWindow treats a nil end as open. The end instant is exclusive.
func withinWindow(from time.Time, to *time.Time, now time.Time) bool {
	if now.Before(from) {
		return false
	}
	return to == nil || now.Before(*to)
}

func applyRate(c *domain.AgreementCondition, rate, baseCost decimal.Decimal) (decimal.Decimal, error) {
	switch c.RateType {
	case domain.RateTypeAmount:
		return money.RoundUnit(rate), nil
	case domain.RateTypePercent:
		if !baseCost.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: percent condition %s needs a base cost", domain.ErrCatalogLookupFailure, c.ID)
		}
		fraction := money.PercentPoints(rate)
		if c.ConditionType == domain.ConditionTypeDiscount {
			return money.RoundUnit(baseCost.Mul(decimal.NewFromInt(1).Sub(fraction))), nil
		}
		return money.RoundUnit(baseCost.Mul(decimal.NewFromInt(1).Add(fraction))), nil
	}
	return decimal.Zero, fmt.Errorf("unknown rate type %q on condition %s", c.RateType, c.ID)
}
