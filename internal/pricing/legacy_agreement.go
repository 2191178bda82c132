package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/money"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
)

// PriceAgreementSource lists the legacy price agreements of a client
type PriceAgreementSource interface {
	ListForClient(ctx context.Context, scope repository.TenantScope, clientID uuid.UUID, currency string) ([]domain.PriceAgreement, error)
}

// LegacyMatch is a price from a legacy V1 agreement
type LegacyMatch struct {
	Agreement *domain.PriceAgreement
	UnitPrice decimal.Decimal
	Tiered    bool
}

// LegacyAgreementMatcher prices items from flat per-client agreements
type LegacyAgreementMatcher struct {
	source PriceAgreementSource
}

func NewLegacyAgreementMatcher(source PriceAgreementSource) *LegacyAgreementMatcher {
	return &LegacyAgreementMatcher{source: source}
}

// Match returns the legacy agreement price for item, or nil when none applies.
// A material specific agreement beats a category agreement, then the newest wins.
func (m *LegacyAgreementMatcher) Match(ctx context.Context, scope repository.TenantScope, item Item, now time.Time) (*LegacyMatch, error) {
	agreements, err := m.source.ListForClient(ctx, scope, item.CustomerID, item.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to list price agreements: %w", err)
	}

	var candidates []domain.PriceAgreement
	for _, a := range agreements {
		if a.Status != domain.AgreementStatusReleased || !withinWindow(a.ValidFrom, a.ValidUntil, now) {
			continue
		}
		switch {
		case a.MaterialID != nil:
			if item.MaterialID == nil || *a.MaterialID != *item.MaterialID {
				continue
			}
		case a.Category != nil:
			if *a.Category != item.Category {
				continue
			}
		default:
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.MaterialID != nil) != (b.MaterialID != nil) {
			return a.MaterialID != nil
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	chosen := candidates[0]
	price, tiered := VolumeTierPrice(chosen.VolumeTiers, item.Quantity)
	if !tiered {
		price = chosen.UnitPrice
	}
	return &LegacyMatch{Agreement: &chosen, UnitPrice: money.RoundUnit(price), Tiered: tiered}, nil
}

// VolumeTierPrice returns the price of the band containing quantity. A nil MaxQty is open ended.
func VolumeTierPrice(tiers []domain.VolumeTier, quantity decimal.Decimal) (decimal.Decimal, bool) {
	for _, t := range tiers {
		if quantity.LessThan(t.MinQty) {
			continue
		}
		if t.MaxQty != nil && quantity.GreaterThan(*t.MaxQty) {
			continue
		}
		return t.Price, true
	}
	return decimal.Zero, false
}
