package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/datawarehouse"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/pricing"
	"go.uber.org/zap"
)

// Querier runs read-only warehouse queries
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) ([]datawarehouse.Row, error)
}

const optionsByMaterialQuery = `
SELECT material_id, category, hs_code, option_slot, supplier_name, origin_type,
       country_code, base_cost, certifications, lead_time_days
FROM dbo.material_supplier_options
WHERE tenant_id = @p1 AND material_id = @p2 AND is_active = 1
ORDER BY option_slot`

const optionsByCategoryQuery = `
SELECT material_id, category, hs_code, option_slot, supplier_name, origin_type,
       country_code, base_cost, certifications, lead_time_days
FROM dbo.material_supplier_options
WHERE tenant_id = @p1 AND category = @p2 AND is_category_default = 1 AND is_active = 1
ORDER BY option_slot`

// WarehouseCatalog reads supplier options from the data warehouse.
// Each row is one option slot; the typed option is built once here.
type WarehouseCatalog struct {
	querier Querier
	logger  *zap.Logger
}

func NewWarehouseCatalog(querier Querier, logger *zap.Logger) *WarehouseCatalog {
	return &WarehouseCatalog{querier: querier, logger: logger}
}

func (c *WarehouseCatalog) Lookup(ctx context.Context, tenantID uuid.UUID, query pricing.CatalogQuery) (*pricing.CatalogEntry, error) {
	var rows []datawarehouse.Row
	var err error
	if query.MaterialID != nil {
		rows, err = c.querier.Query(ctx, optionsByMaterialQuery, tenantID.String(), *query.MaterialID)
	} else {
		rows, err = c.querier.Query(ctx, optionsByCategoryQuery, tenantID.String(), string(query.Category))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLookupFailure, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no supplier options for %s", domain.ErrCatalogLookupFailure, describe(query))
	}

	entry := &pricing.CatalogEntry{
		MaterialID: asString(rows[0]["material_id"]),
		Category:   domain.MaterialCategory(asString(rows[0]["category"])),
		HSCode:     asString(rows[0]["hs_code"]),
	}
	if entry.Category != query.Category {
		return nil, fmt.Errorf("%w: %s is %s, not %s", domain.ErrCatalogLookupFailure, describe(query), entry.Category, query.Category)
	}

	for _, row := range rows {
		option, err := parseOption(row)
		if err != nil {
			c.logger.Warn("skipping malformed supplier option",
				zap.String("material_id", entry.MaterialID),
				zap.Error(err),
			)
			continue
		}
		entry.Options = append(entry.Options, option)
	}
	if len(entry.Options) == 0 {
		return nil, fmt.Errorf("%w: no usable supplier options for %s", domain.ErrCatalogLookupFailure, describe(query))
	}
	sort.SliceStable(entry.Options, func(i, j int) bool { return entry.Options[i].Slot < entry.Options[j].Slot })
	return entry, nil
}

func parseOption(row datawarehouse.Row) (pricing.SupplierOption, error) {
	slot := pricing.OptionSlot(strings.ToUpper(asString(row["option_slot"])))
	if slot != pricing.SlotA && slot != pricing.SlotB && slot != pricing.SlotC {
		return pricing.SupplierOption{}, fmt.Errorf("unknown option slot %q", slot)
	}

	origin := domain.OriginType(strings.ToUpper(asString(row["origin_type"])))
	if !origin.IsValid() {
		return pricing.SupplierOption{}, fmt.Errorf("slot %s: invalid origin %q", slot, origin)
	}

	cost, err := asDecimal(row["base_cost"])
	if err != nil {
		return pricing.SupplierOption{}, fmt.Errorf("slot %s: base cost: %w", slot, err)
	}

	var certs []string
	for _, c := range strings.Split(asString(row["certifications"]), ",") {
		if c = strings.TrimSpace(c); c != "" {
			certs = append(certs, c)
		}
	}

	leadTime, _ := row["lead_time_days"].(int64)

	return pricing.SupplierOption{
		Slot:           slot,
		SupplierName:   asString(row["supplier_name"]),
		OriginType:     origin,
		Country:        strings.ToUpper(asString(row["country_code"])),
		BaseCost:       cost,
		Certifications: certs,
		LeadTimeDays:   int(leadTime),
	}, nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// asDecimal converts the driver representations of a SQL Server decimal
func asDecimal(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case []byte:
		return decimal.NewFromString(string(t))
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case nil:
		return decimal.Zero, fmt.Errorf("missing value")
	}
	return decimal.Zero, fmt.Errorf("unsupported type %T", v)
}

func describe(q pricing.CatalogQuery) string {
	if q.MaterialID != nil {
		return "material " + *q.MaterialID
	}
	return "category " + string(q.Category)
}
