package pricing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dualEntry(chinaCost, nonChinaCost string) *pricing.CatalogEntry {
	return &pricing.CatalogEntry{
		MaterialID: "PIPE-6-SCH40",
		Category:   domain.CategoryPipe,
		HSCode:     "7304.19",
		Options: []pricing.SupplierOption{
			{Slot: pricing.SlotA, SupplierName: "Tianjin Steel", OriginType: domain.OriginChina, Country: "CN", BaseCost: d(chinaCost), Certifications: []string{"ISO9001"}},
			{Slot: pricing.SlotB, SupplierName: "Salzgitter", OriginType: domain.OriginNonChina, Country: "DE", BaseCost: d(nonChinaCost), Certifications: []string{"ISO9001", "NORSOK"}},
		},
	}
}

func anyOriginRules() []domain.ClientPricingRule {
	return []domain.ClientPricingRule{globalRule(domain.OriginAny, domain.CategoryAny, "0.15", "0.05", "0.02")}
}

func selectionInput(item pricing.Item, entry *pricing.CatalogEntry) pricing.SelectionInput {
	return pricing.SelectionInput{
		Item:            item,
		Entry:           entry,
		Rules:           anyOriginRules(),
		Pipeline:        pricing.NewPipeline(pricing.CertificationCheck{}),
		PreferredOrigin: domain.OriginNonChina,
	}
}

func TestOriginSelector_RecommendsLowerLandedCost(t *testing.T) {
	// CHINA is cheaper ex works but its 25% duty makes NON_CHINA cheaper landed
	duty := &fixedDuty{rates: map[string]string{"CN": "0.25", "DE": "0"}}
	selector := pricing.NewOriginSelector(duty, false, nil, zap.NewNop())

	item := pipeItem(uuid.New(), uuid.New())
	selection, err := selector.Select(context.Background(), selectionInput(item, dualEntry("100", "110")))
	require.NoError(t, err)

	assert.Equal(t, domain.OriginNonChina, selection.Recommended)
	assert.Equal(t, domain.OriginNonChina, selection.Selected.Origin)
	assert.ElementsMatch(t, []domain.OriginType{domain.OriginChina, domain.OriginNonChina}, selection.AllowedOrigins)
	assert.Contains(t, selection.Reason, "NON_CHINA landed cost")
	// 110 * 1.22 = 134.2 vs 100 * 1.22 + 25 = 147
	assert.True(t, d("134.2").Equal(selection.Selected.LandedUnitCost))
	assert.Equal(t, 2, duty.calls)
}

func TestOriginSelector_CertificationLeavesOneOrigin(t *testing.T) {
	duty := &fixedDuty{rates: map[string]string{"DE": "0"}}
	selector := pricing.NewOriginSelector(duty, false, nil, zap.NewNop())

	item := pipeItem(uuid.New(), uuid.New())
	item.RequiredCertifications = []string{"NORSOK"}

	selection, err := selector.Select(context.Background(), selectionInput(item, dualEntry("80", "120")))
	require.NoError(t, err)

	assert.Equal(t, []domain.OriginType{domain.OriginNonChina}, selection.AllowedOrigins)
	assert.Equal(t, domain.OriginNonChina, selection.Recommended)
	assert.Contains(t, selection.Reason, "only NON_CHINA allowed")
	assert.Contains(t, selection.Reason, "NORSOK")
	assert.Equal(t, 1, duty.calls, "denied origins are not costed")
}

func TestOriginSelector_TieGoesToPreferredOrigin(t *testing.T) {
	duty := &fixedDuty{}
	selector := pricing.NewOriginSelector(duty, false, nil, zap.NewNop())
	item := pipeItem(uuid.New(), uuid.New())

	for _, preferred := range []domain.OriginType{domain.OriginChina, domain.OriginNonChina} {
		in := selectionInput(item, dualEntry("100", "100"))
		in.PreferredOrigin = preferred

		selection, err := selector.Select(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, preferred, selection.Recommended)
		assert.Contains(t, selection.Reason, "tie")
	}
}

func TestOriginSelector_RequestedOrigin(t *testing.T) {
	duty := &fixedDuty{rates: map[string]string{"CN": "0.25"}}
	selector := pricing.NewOriginSelector(duty, false, nil, zap.NewNop())

	item := pipeItem(uuid.New(), uuid.New())
	item.RequestedOrigin = originPtr(domain.OriginChina)

	selection, err := selector.Select(context.Background(), selectionInput(item, dualEntry("100", "110")))
	require.NoError(t, err)
	assert.Equal(t, domain.OriginNonChina, selection.Recommended)
	assert.Equal(t, domain.OriginChina, selection.Selected.Origin, "an allowed requested origin is honored")
	assert.False(t, selection.Overridden)

	item.RequiredCertifications = []string{"NORSOK"}
	selection, err = selector.Select(context.Background(), selectionInput(item, dualEntry("100", "110")))
	require.NoError(t, err)
	assert.Equal(t, domain.OriginNonChina, selection.Selected.Origin)
	assert.True(t, selection.Overridden)
	assert.Contains(t, selection.Reason, "requested CHINA not available")
}

func TestOriginSelector_NoAllowedOrigin(t *testing.T) {
	selector := pricing.NewOriginSelector(&fixedDuty{}, false, nil, zap.NewNop())

	item := pipeItem(uuid.New(), uuid.New())
	item.RequiredCertifications = []string{"API5L"}

	_, err := selector.Select(context.Background(), selectionInput(item, dualEntry("100", "110")))
	assert.ErrorIs(t, err, domain.ErrNoAllowedOrigin)
}

func TestOriginSelector_MissingRuleForAllowedOrigin(t *testing.T) {
	selector := pricing.NewOriginSelector(&fixedDuty{}, false, nil, zap.NewNop())

	in := selectionInput(pipeItem(uuid.New(), uuid.New()), dualEntry("100", "110"))
	in.Rules = []domain.ClientPricingRule{globalRule(domain.OriginChina, "pipe", "0.1", "0", "0")}

	_, err := selector.Select(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNoApplicableRule)
}

func TestOriginSelector_DutyFailure(t *testing.T) {
	duty := &fixedDuty{err: errors.New("connection refused")}
	item := pipeItem(uuid.New(), uuid.New())

	strict := pricing.NewOriginSelector(duty, false, nil, zap.NewNop())
	_, err := strict.Select(context.Background(), selectionInput(item, dualEntry("100", "110")))
	assert.ErrorIs(t, err, domain.ErrRegulatoryLookupFailure)

	degraded := pricing.NewOriginSelector(duty, true, nil, zap.NewNop())
	selection, err := degraded.Select(context.Background(), selectionInput(item, dualEntry("100", "110")))
	require.NoError(t, err)
	assert.True(t, selection.Selected.DutyDegraded)
	assert.True(t, selection.Selected.DutyPerUnit.IsZero())
	assert.Equal(t, domain.OriginChina, selection.Recommended)
}

func TestPipeline_RestrictionStages(t *testing.T) {
	customerID := uuid.New()
	options := dualEntry("100", "110").CheapestByOrigin()
	subject := pricing.Subject{CustomerID: customerID, Category: domain.CategoryPipe}

	aml := pricing.NewRestrictionCheck(domain.RestrictionAML, []domain.OriginRestriction{
		{Kind: domain.RestrictionAML, OriginType: domain.OriginAny, Country: strPtr("cn"), Reason: "sanctioned mill", IsActive: true},
	})
	otherClient := uuid.New()
	client := pricing.NewRestrictionCheck(domain.RestrictionClient, []domain.OriginRestriction{
		{Kind: domain.RestrictionClient, ClientID: &otherClient, OriginType: domain.OriginNonChina, Reason: "other client", IsActive: true},
		{Kind: domain.RestrictionClient, ClientID: &customerID, OriginType: domain.OriginNonChina, Reason: "inactive", IsActive: false},
	})

	verdicts := pricing.NewPipeline(pricing.CertificationCheck{}, client, aml).Evaluate(subject, options)
	require.Len(t, verdicts, 2)

	assert.Equal(t, domain.OriginChina, verdicts[0].Origin)
	assert.False(t, verdicts[0].Allowed)
	assert.Equal(t, "aml", verdicts[0].Stage)
	assert.Contains(t, verdicts[0].Reason, "sanctioned mill")

	assert.Equal(t, domain.OriginNonChina, verdicts[1].Origin)
	assert.True(t, verdicts[1].Allowed)
}

func TestLoadPipeline(t *testing.T) {
	customerID := uuid.New()
	grating := domain.CategoryGrating
	sources := &memorySources{restrictions: []domain.OriginRestriction{
		{Kind: domain.RestrictionRiskCategory, Category: &grating, OriginType: domain.OriginChina, Reason: "galvanizing quality", IsActive: true},
		{Kind: domain.RestrictionOperator, ClientID: &customerID, OriginType: domain.OriginChina, Reason: "operator blacklist", IsActive: true},
	}}

	pipeline, err := pricing.LoadPipeline(context.Background(), mustScope(uuid.New()), sources)
	require.NoError(t, err)

	options := dualEntry("100", "110").CheapestByOrigin()

	verdicts := pipeline.Evaluate(pricing.Subject{CustomerID: uuid.New(), Category: domain.CategoryGrating}, options)
	assert.False(t, verdicts[0].Allowed)
	assert.Equal(t, "risk_category", verdicts[0].Stage)

	verdicts = pipeline.Evaluate(pricing.Subject{CustomerID: customerID, Category: domain.CategoryPipe}, options)
	assert.False(t, verdicts[0].Allowed)
	assert.Equal(t, "operator", verdicts[0].Stage)

	verdicts = pipeline.Evaluate(pricing.Subject{CustomerID: uuid.New(), Category: domain.CategoryPipe}, options)
	assert.True(t, verdicts[0].Allowed)
	assert.True(t, verdicts[1].Allowed)
}

func TestCheapestByOrigin(t *testing.T) {
	entry := &pricing.CatalogEntry{Options: []pricing.SupplierOption{
		{Slot: pricing.SlotC, OriginType: domain.OriginChina, Country: "CN", BaseCost: d("95")},
		{Slot: pricing.SlotA, OriginType: domain.OriginChina, Country: "CN", BaseCost: d("100")},
		{Slot: pricing.SlotB, OriginType: domain.OriginNonChina, Country: "KR", BaseCost: d("0")},
		{Slot: pricing.SlotB, OriginType: domain.OriginAny, Country: "US", BaseCost: d("50")},
	}}

	best := entry.CheapestByOrigin()
	require.Len(t, best, 1)
	assert.Equal(t, pricing.SlotC, best[domain.OriginChina].Slot)
}
