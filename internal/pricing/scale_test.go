package pricing_test

import (
	"testing"

	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateScale(t *testing.T) {
	// deliberately unsorted
	scales := []domain.AgreementScale{
		{ScaleQuantityFrom: d("100"), RateValue: d("80")},
		{ScaleQuantityFrom: d("10"), RateValue: d("95")},
		{ScaleQuantityFrom: d("50"), RateValue: d("90")},
	}

	tests := []struct {
		name        string
		quantity    string
		wantRate    string
		wantFloored bool
	}{
		{"below lowest tier uses floor", "5", "95", true},
		{"exactly on lowest threshold", "10", "95", false},
		{"between tiers", "49.5", "95", false},
		{"on middle threshold", "50", "90", false},
		{"above highest", "1000", "80", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := pricing.EvaluateScale(scales, d(tt.quantity))
			require.True(t, ok)
			assert.True(t, d(tt.wantRate).Equal(result.Rate), "got %s", result.Rate)
			assert.Equal(t, tt.wantFloored, result.Floored)
		})
	}
}

func TestEvaluateScale_NoTiers(t *testing.T) {
	_, ok := pricing.EvaluateScale(nil, d("10"))
	assert.False(t, ok)
}
