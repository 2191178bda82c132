// Package pricing resolves item prices from negotiated agreements and fallback rules,
// and compares sourcing origins on landed cost.
package pricing

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
)

// OptionSlot identifies one of the fixed supplier option positions of a catalog entry
type OptionSlot string

const (
	SlotA OptionSlot = "A"
	SlotB OptionSlot = "B"
	SlotC OptionSlot = "C"
)

// Slots lists the option slots in evaluation order
var Slots = []OptionSlot{SlotA, SlotB, SlotC}

// SupplierOption is one typed sourcing alternative. Populated once by the catalog adapter.
type SupplierOption struct {
	Slot           OptionSlot        `json:"slot"`
	SupplierName   string            `json:"supplierName"`
	OriginType     domain.OriginType `json:"originType"`
	Country        string            `json:"country"`
	BaseCost       decimal.Decimal   `json:"baseCost"`
	Certifications []string          `json:"certifications"`
	LeadTimeDays   int               `json:"leadTimeDays"`
}

// HasCertifications reports whether the option carries every required certification
func (o SupplierOption) HasCertifications(required []string) (string, bool) {
	held := make(map[string]struct{}, len(o.Certifications))
	for _, c := range o.Certifications {
		held[c] = struct{}{}
	}
	for _, r := range required {
		if _, ok := held[r]; !ok {
			return r, false
		}
	}
	return "", true
}

// CatalogQuery identifies the material being priced
type CatalogQuery struct {
	MaterialID *string
	Category   domain.MaterialCategory
}

// CatalogEntry is the catalog view of a material
type CatalogEntry struct {
	MaterialID string                  `json:"materialId"`
	Category   domain.MaterialCategory `json:"category"`
	HSCode     string                  `json:"hsCode"`
	Options    []SupplierOption        `json:"options"`
}

// CheapestByOrigin keeps the lowest base cost option of each concrete origin.
// Equal costs keep the earlier slot.
func (e *CatalogEntry) CheapestByOrigin() map[domain.OriginType]SupplierOption {
	options := make([]SupplierOption, 0, len(e.Options))
	for _, opt := range e.Options {
		if opt.OriginType.IsValid() && opt.BaseCost.IsPositive() {
			options = append(options, opt)
		}
	}
	sort.SliceStable(options, func(i, j int) bool { return options[i].Slot < options[j].Slot })

	best := make(map[domain.OriginType]SupplierOption, 2)
	for _, opt := range options {
		current, ok := best[opt.OriginType]
		if !ok || opt.BaseCost.LessThan(current.BaseCost) {
			best[opt.OriginType] = opt
		}
	}
	return best
}

// CatalogProvider supplies base cost and sourcing options per material
type CatalogProvider interface {
	Lookup(ctx context.Context, tenantID uuid.UUID, query CatalogQuery) (*CatalogEntry, error)
}

// DutyQuery keys a duty rate lookup
type DutyQuery struct {
	TenantID   uuid.UUID
	MaterialID string
	Category   domain.MaterialCategory
	HSCode     string
	Country    string
	Origin     domain.OriginType
}

// DutyInfo is the regulatory answer for one material and origin country.
// Rate is a fraction of base cost.
type DutyInfo struct {
	HSCode         string          `json:"hsCode"`
	Rate           decimal.Decimal `json:"dutyRate"`
	TradeAgreement string          `json:"tradeAgreement"`
}

// DutyProvider supplies HS code and duty rate
type DutyProvider interface {
	LookupDuty(ctx context.Context, query DutyQuery) (*DutyInfo, error)
}
