package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/catalog"
	"github.com/straye-as/rfq-pricing-api/internal/datawarehouse"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestStaticCatalog_Lookup(t *testing.T) {
	c := catalog.NewStaticCatalog(
		pricing.CatalogEntry{
			MaterialID: "PIPE-6-SCH40",
			Category:   domain.CategoryPipe,
			HSCode:     "7304.19",
			Options: []pricing.SupplierOption{
				{Slot: pricing.SlotA, OriginType: domain.OriginNonChina, Country: "DE", BaseCost: decimal.NewFromInt(120)},
			},
		},
		pricing.CatalogEntry{
			Category: domain.CategoryGrating,
			Options: []pricing.SupplierOption{
				{Slot: pricing.SlotA, OriginType: domain.OriginChina, Country: "CN", BaseCost: decimal.NewFromInt(40)},
			},
		},
	)
	ctx := context.Background()

	entry, err := c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{MaterialID: strPtr("PIPE-6-SCH40"), Category: domain.CategoryPipe})
	require.NoError(t, err)
	assert.Equal(t, "7304.19", entry.HSCode)

	entry, err = c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{Category: domain.CategoryGrating})
	require.NoError(t, err)
	assert.Len(t, entry.Options, 1)

	_, err = c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{MaterialID: strPtr("UNKNOWN"), Category: domain.CategoryPipe})
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailure)

	_, err = c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{MaterialID: strPtr("PIPE-6-SCH40"), Category: domain.CategoryFlange})
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailure)

	_, err = c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{Category: domain.CategoryFitting})
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailure)
}

func TestLoadStaticCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `[
		{"materialId": "FLG-4-150", "category": "flange", "hsCode": "7307.91",
		 "options": [
			{"slot": "A", "supplierName": "Acme", "originType": "CHINA", "country": "CN", "baseCost": "55.5", "certifications": ["ISO9001"]},
			{"slot": "B", "supplierName": "Nordic", "originType": "NON_CHINA", "country": "NO", "baseCost": "80"}
		 ]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := catalog.LoadStaticCatalog(path)
	require.NoError(t, err)

	entry, err := c.Lookup(context.Background(), uuid.New(), pricing.CatalogQuery{MaterialID: strPtr("FLG-4-150"), Category: domain.CategoryFlange})
	require.NoError(t, err)
	require.Len(t, entry.Options, 2)
	assert.True(t, decimal.RequireFromString("55.5").Equal(entry.Options[0].BaseCost))
	assert.Equal(t, []string{"ISO9001"}, entry.Options[0].Certifications)
}

func TestLoadStaticCatalog_InvalidCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"materialId": "X", "category": "valve"}]`), 0o600))

	_, err := catalog.LoadStaticCatalog(path)
	assert.Error(t, err)
}

type fakeQuerier struct {
	rows  []datawarehouse.Row
	err   error
	query string
	args  []interface{}
}

func (f *fakeQuerier) Query(_ context.Context, query string, args ...interface{}) ([]datawarehouse.Row, error) {
	f.query = query
	f.args = args
	return f.rows, f.err
}

func TestWarehouseCatalog_Lookup(t *testing.T) {
	q := &fakeQuerier{rows: []datawarehouse.Row{
		{
			"material_id": "PIPE-6-SCH40", "category": "pipe", "hs_code": "7304.19",
			"option_slot": "b", "supplier_name": "Nordic Steel", "origin_type": "NON_CHINA",
			"country_code": "no", "base_cost": []byte("120.5000"), "certifications": "ISO9001, PED",
			"lead_time_days": int64(21),
		},
		{
			"material_id": "PIPE-6-SCH40", "category": "pipe", "hs_code": "7304.19",
			"option_slot": "A", "supplier_name": "Shanghai Pipe", "origin_type": "CHINA",
			"country_code": "CN", "base_cost": []byte("95.0000"), "certifications": nil,
			"lead_time_days": int64(45),
		},
		{
			"material_id": "PIPE-6-SCH40", "category": "pipe", "hs_code": "7304.19",
			"option_slot": "C", "supplier_name": "Broken", "origin_type": "MARS",
			"country_code": "XX", "base_cost": []byte("1"),
		},
	}}
	c := catalog.NewWarehouseCatalog(q, zap.NewNop())
	tenantID := uuid.New()

	entry, err := c.Lookup(context.Background(), tenantID, pricing.CatalogQuery{MaterialID: strPtr("PIPE-6-SCH40"), Category: domain.CategoryPipe})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{tenantID.String(), "PIPE-6-SCH40"}, q.args)

	require.Len(t, entry.Options, 2)
	assert.Equal(t, pricing.SlotA, entry.Options[0].Slot)
	assert.Equal(t, pricing.SlotB, entry.Options[1].Slot)
	assert.Equal(t, "NO", entry.Options[1].Country)
	assert.Equal(t, []string{"ISO9001", "PED"}, entry.Options[1].Certifications)
	assert.Equal(t, 21, entry.Options[1].LeadTimeDays)
	assert.True(t, decimal.RequireFromString("120.5").Equal(entry.Options[1].BaseCost))
}

func TestWarehouseCatalog_Failures(t *testing.T) {
	ctx := context.Background()

	c := catalog.NewWarehouseCatalog(&fakeQuerier{err: errors.New("timeout")}, zap.NewNop())
	_, err := c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{Category: domain.CategoryPipe})
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailure)

	c = catalog.NewWarehouseCatalog(&fakeQuerier{}, zap.NewNop())
	_, err = c.Lookup(ctx, uuid.New(), pricing.CatalogQuery{Category: domain.CategoryPipe})
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailure)
}
