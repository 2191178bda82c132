package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pipeItem(tenantID, customerID uuid.UUID) pricing.Item {
	return pricing.Item{
		TenantID:   tenantID,
		RFQItemID:  uuid.New(),
		LineNumber: 1,
		CustomerID: customerID,
		MaterialID: strPtr("PIPE-6-SCH40"),
		Category:   domain.CategoryPipe,
		Quantity:   d("10"),
		Currency:   "USD",
	}
}

func TestRankConditions_PriorityThenSpecificityThenRecency(t *testing.T) {
	customerID := uuid.New()
	header := releasedHeader(customerID)
	now := time.Now()
	older := now.Add(-2 * time.Hour)
	newer := now.Add(-1 * time.Hour)

	generic := condition(header, 10, domain.RateTypeAmount, "100", newer)

	byGroup := condition(header, 20, domain.RateTypeAmount, "95", newer)
	byGroup.KeyMaterialGroup = categoryPtr(domain.CategoryPipe)

	byMaterialOld := condition(header, 20, domain.RateTypeAmount, "90", older)
	byMaterialOld.KeyMaterialID = strPtr("PIPE-6-SCH40")

	byMaterialNew := condition(header, 20, domain.RateTypeAmount, "85", newer)
	byMaterialNew.KeyMaterialID = strPtr("PIPE-6-SCH40")

	item := pipeItem(uuid.New(), customerID)

	orders := [][]domain.AgreementCondition{
		{byGroup, byMaterialOld, generic, byMaterialNew},
		{byMaterialNew, byMaterialOld, byGroup, generic},
		{generic, byGroup, byMaterialNew, byMaterialOld},
	}
	for _, conditions := range orders {
		ranked := pricing.RankConditions(conditions, item, now)
		require.Len(t, ranked, 4)
		assert.Equal(t, generic.ID, ranked[0].ID, "lowest priority number wins regardless of specificity")
		assert.Equal(t, byMaterialNew.ID, ranked[1].ID)
		assert.Equal(t, byMaterialOld.ID, ranked[2].ID)
		assert.Equal(t, byGroup.ID, ranked[3].ID)
	}
}

func TestRankConditions_Filters(t *testing.T) {
	customerID := uuid.New()
	header := releasedHeader(customerID)
	now := time.Now()

	otherMaterial := condition(header, 10, domain.RateTypeAmount, "100", now)
	otherMaterial.KeyMaterialID = strPtr("FLANGE-4-150")

	otherGroup := condition(header, 10, domain.RateTypeAmount, "100", now)
	otherGroup.KeyMaterialGroup = categoryPtr(domain.CategoryGrating)

	otherCustomer := condition(header, 10, domain.RateTypeAmount, "100", now)
	other := uuid.New()
	otherCustomer.KeyCustomerID = &other

	expired := condition(header, 10, domain.RateTypeAmount, "100", now)
	ended := now.Add(-time.Minute)
	expired.ValidTo = &ended

	endsNow := condition(header, 10, domain.RateTypeAmount, "100", now)
	endsNow.ValidTo = &now

	draft := condition(header, 10, domain.RateTypeAmount, "100", now)
	draft.Status = domain.AgreementStatusDraft

	draftHeader := releasedHeader(customerID)
	draftHeader.Status = domain.AgreementStatusDraft
	underDraftHeader := condition(draftHeader, 10, domain.RateTypeAmount, "100", now)

	ranked := pricing.RankConditions([]domain.AgreementCondition{
		otherMaterial, otherGroup, otherCustomer, expired, endsNow, draft, underDraftHeader,
	}, pipeItem(uuid.New(), customerID), now)
	assert.Empty(t, ranked)
}

func TestAgreementResolver_AmountCondition(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()
	header := releasedHeader(customerID)
	c := condition(header, 10, domain.RateTypeAmount, "900", time.Now().Add(-time.Hour))
	c.KeyMaterialID = strPtr("PIPE-6-SCH40")

	resolver := pricing.NewAgreementResolver(&memorySources{conditions: []domain.AgreementCondition{c}}, nil, zap.NewNop())
	match, err := resolver.Resolve(context.Background(), mustScope(tenantID), pipeItem(tenantID, customerID), d("120"), time.Now())
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, c.ID, match.Condition.ID)
	assert.True(t, d("900").Equal(match.UnitPrice))
	assert.False(t, match.Scaled)
	assert.False(t, match.Ambiguous)
}

func TestAgreementResolver_NoMatch(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()
	header := releasedHeader(customerID)
	c := condition(header, 10, domain.RateTypeAmount, "900", time.Now())
	c.KeyMaterialID = strPtr("FLANGE-4-150")

	resolver := pricing.NewAgreementResolver(&memorySources{conditions: []domain.AgreementCondition{c}}, nil, zap.NewNop())
	match, err := resolver.Resolve(context.Background(), mustScope(tenantID), pipeItem(tenantID, customerID), d("120"), time.Now())
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestAgreementResolver_PercentConditions(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()
	header := releasedHeader(customerID)

	tests := []struct {
		name          string
		conditionType domain.ConditionType
		rate          string
		want          string
	}{
		{"discount", domain.ConditionTypeDiscount, "10", "108"},
		{"surcharge", domain.ConditionTypeSurcharge, "5", "126"},
		{"price percent behaves as surcharge", domain.ConditionTypePrice, "12.5", "135"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := condition(header, 10, domain.RateTypePercent, tt.rate, time.Now())
			c.ConditionType = tt.conditionType

			resolver := pricing.NewAgreementResolver(&memorySources{conditions: []domain.AgreementCondition{c}}, nil, zap.NewNop())
			match, err := resolver.Resolve(context.Background(), mustScope(tenantID), pipeItem(tenantID, customerID), d("120"), time.Now())
			require.NoError(t, err)
			require.NotNil(t, match)
			assert.True(t, d(tt.want).Equal(match.UnitPrice), "got %s", match.UnitPrice)
		})
	}
}

func TestAgreementResolver_PercentNeedsBaseCost(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()
	c := condition(releasedHeader(customerID), 10, domain.RateTypePercent, "10", time.Now())

	resolver := pricing.NewAgreementResolver(&memorySources{conditions: []domain.AgreementCondition{c}}, nil, zap.NewNop())
	_, err := resolver.Resolve(context.Background(), mustScope(tenantID), pipeItem(tenantID, customerID), d("0"), time.Now())
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailure)
}

func TestAgreementResolver_ScaledCondition(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()
	c := condition(releasedHeader(customerID), 10, domain.RateTypeAmount, "100", time.Now())
	c.HasScale = true
	c.Scales = []domain.AgreementScale{
		{ScaleQuantityFrom: d("1"), RateValue: d("100")},
		{ScaleQuantityFrom: d("10"), RateValue: d("92.5")},
		{ScaleQuantityFrom: d("100"), RateValue: d("80")},
	}

	resolver := pricing.NewAgreementResolver(&memorySources{conditions: []domain.AgreementCondition{c}}, nil, zap.NewNop())
	match, err := resolver.Resolve(context.Background(), mustScope(tenantID), pipeItem(tenantID, customerID), d("0"), time.Now())
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.True(t, match.Scaled)
	assert.True(t, d("92.5").Equal(match.UnitPrice))
}

func TestAgreementResolver_AmbiguousTieIsDeterministic(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()
	header := releasedHeader(customerID)
	created := time.Now().Add(-time.Hour).Truncate(time.Second)

	a := condition(header, 10, domain.RateTypeAmount, "100", created)
	b := condition(header, 10, domain.RateTypeAmount, "200", created)
	want := a
	if b.ID.String() < a.ID.String() {
		want = b
	}

	m := metrics.New()
	for _, order := range [][]domain.AgreementCondition{{a, b}, {b, a}} {
		resolver := pricing.NewAgreementResolver(&memorySources{conditions: order}, m, zap.NewNop())
		match, err := resolver.Resolve(context.Background(), mustScope(tenantID), pipeItem(tenantID, customerID), d("120"), time.Now())
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.True(t, match.Ambiguous)
		assert.Equal(t, want.ID, match.Condition.ID)
	}
}
