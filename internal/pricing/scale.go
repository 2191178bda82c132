package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
)

// ScaleResult is the tier picked for a quantity
type ScaleResult struct {
	From decimal.Decimal
	Rate decimal.Decimal
	// Floored is set when the quantity was below every threshold and the lowest tier was used
	Floored bool
}

// EvaluateScale picks the tier with the greatest threshold that is not above quantity.
// A quantity below every threshold gets the lowest tier. ok is false when scales is empty.
func EvaluateScale(scales []domain.AgreementScale, quantity decimal.Decimal) (ScaleResult, bool) {
	if len(scales) == 0 {
		return ScaleResult{}, false
	}

	tiers := make([]domain.AgreementScale, len(scales))
	copy(tiers, scales)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].ScaleQuantityFrom.LessThan(tiers[j].ScaleQuantityFrom)
	})

	if quantity.LessThan(tiers[0].ScaleQuantityFrom) {
		return ScaleResult{From: tiers[0].ScaleQuantityFrom, Rate: tiers[0].RateValue, Floored: true}, true
	}

	picked := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.ScaleQuantityFrom.GreaterThan(quantity) {
			break
		}
		picked = tier
	}
	return ScaleResult{From: picked.ScaleQuantityFrom, Rate: picked.RateValue}, true
}
