package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AgreementStatus applies to agreement headers and conditions
type AgreementStatus string

const (
	AgreementStatusDraft    AgreementStatus = "draft"
	AgreementStatusReleased AgreementStatus = "released"
	AgreementStatusExpired  AgreementStatus = "expired"
)

// AgreementHeader groups the negotiated conditions of one customer
type AgreementHeader struct {
	BaseModel
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AgreementCode string          `gorm:"type:varchar(50);not null;column:agreement_code"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	ValidFrom     time.Time       `gorm:"not null;column:valid_from"`
	ValidTo       *time.Time      `gorm:"column:valid_to"`
	Status        AgreementStatus `gorm:"type:varchar(20);not null;default:'draft'"`
}

// ConditionType fixes the direction of a percentage condition
type ConditionType string

const (
	ConditionTypePrice     ConditionType = "PRICE"
	ConditionTypeDiscount  ConditionType = "DISCOUNT"
	ConditionTypeSurcharge ConditionType = "SURCHARGE"
)

// RateType selects absolute or relative rates
type RateType string

const (
	RateTypeAmount  RateType = "AMOUNT"
	RateTypePercent RateType = "PERCENT"
)

// AgreementCondition is one keyed price term of an agreement
type AgreementCondition struct {
	BaseModel
	TenantID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	HeaderID          uuid.UUID         `gorm:"type:uuid;not null;index;column:header_id"`
	Header            *AgreementHeader  `gorm:"foreignKey:HeaderID"`
	ConditionType     ConditionType     `gorm:"type:varchar(20);not null;column:condition_type"`
	RateType          RateType          `gorm:"type:varchar(10);not null;column:rate_type"`
	RateValue         decimal.Decimal   `gorm:"type:decimal(15,4);not null;column:rate_value"`
	HasScale          bool              `gorm:"not null;default:false;column:has_scale"`
	ConditionPriority int               `gorm:"not null;column:condition_priority"`
	KeyCustomerID     *uuid.UUID        `gorm:"type:uuid;column:key_customer_id"`
	KeyMaterialID     *string           `gorm:"type:varchar(100);column:key_material_id"`
	KeyMaterialGroup  *MaterialCategory `gorm:"type:varchar(20);column:key_material_group"`
	ValidFrom         time.Time         `gorm:"not null;column:valid_from"`
	ValidTo           *time.Time        `gorm:"column:valid_to"`
	Status            AgreementStatus   `gorm:"type:varchar(20);not null;default:'draft'"`
	Scales            []AgreementScale  `gorm:"foreignKey:ConditionID"`
}

// Specificity ranks how narrowly the condition is keyed: material 2, group 1, none 0
func (c *AgreementCondition) Specificity() int {
	switch {
	case c.KeyMaterialID != nil:
		return 2
	case c.KeyMaterialGroup != nil:
		return 1
	}
	return 0
}

// AgreementScale is a quantity tier of a scaled condition
type AgreementScale struct {
	BaseModel
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ConditionID       uuid.UUID       `gorm:"type:uuid;not null;index;column:condition_id"`
	ScaleQuantityFrom decimal.Decimal `gorm:"type:decimal(15,4);not null;column:scale_quantity_from"`
	RateValue         decimal.Decimal `gorm:"type:decimal(15,4);not null;column:rate_value"`
}

// ClientPricingRule is a V1 markup rule. ClientID nil means global.
type ClientPricingRule struct {
	BaseModel
	TenantID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID     *uuid.UUID      `gorm:"type:uuid;index;column:client_id"`
	OriginType   OriginType      `gorm:"type:varchar(20);not null;default:'ANY';column:origin_type"`
	Category     string          `gorm:"type:varchar(20);not null;default:'ANY'"`
	ProjectType  *string         `gorm:"type:varchar(50);column:project_type"`
	MarkupPct    decimal.Decimal `gorm:"type:decimal(9,6);not null;column:markup_pct"`
	LogisticsPct decimal.Decimal `gorm:"type:decimal(9,6);not null;column:logistics_pct"`
	RiskPct      decimal.Decimal `gorm:"type:decimal(9,6);not null;column:risk_pct"`
	IsActive     bool            `gorm:"not null;column:is_active"`
}

// VolumeTier is a quantity band of a legacy price agreement. MaxQty nil is open ended.
type VolumeTier struct {
	MinQty decimal.Decimal  `json:"minQty"`
	MaxQty *decimal.Decimal `json:"maxQty,omitempty"`
	Price  decimal.Decimal  `json:"price"`
}

// PriceAgreement is the legacy flat agreement consulted before V1 rules
type PriceAgreement struct {
	BaseModel
	TenantID    uuid.UUID                       `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID                       `gorm:"type:uuid;not null;index;column:client_id"`
	MaterialID  *string                         `gorm:"type:varchar(100);column:material_id"`
	Category    *MaterialCategory               `gorm:"type:varchar(20)"`
	UnitPrice   decimal.Decimal                 `gorm:"type:decimal(15,4);not null;column:unit_price"`
	Currency    string                          `gorm:"type:varchar(3);not null"`
	VolumeTiers datatypes.JSONSlice[VolumeTier] `gorm:"column:volume_tiers"`
	ValidFrom   time.Time                       `gorm:"not null;column:valid_from"`
	ValidUntil  *time.Time                      `gorm:"column:valid_until"`
	Status      AgreementStatus                 `gorm:"type:varchar(20);not null;default:'released'"`
}

// RestrictionKind names a stage of the origin restriction pipeline
type RestrictionKind string

const (
	RestrictionClient       RestrictionKind = "client"
	RestrictionRiskCategory RestrictionKind = "risk_category"
	RestrictionAML          RestrictionKind = "aml"
	RestrictionOperator     RestrictionKind = "operator"
)

// OriginRestriction denies an origin for the matching scope.
// Nil ClientID and Category match everything.
type OriginRestriction struct {
	BaseModel
	TenantID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind       RestrictionKind   `gorm:"type:varchar(20);not null"`
	ClientID   *uuid.UUID        `gorm:"type:uuid;column:client_id"`
	Category   *MaterialCategory `gorm:"type:varchar(20)"`
	OriginType OriginType        `gorm:"type:varchar(20);not null;column:origin_type"`
	Country    *string           `gorm:"type:varchar(2)"`
	Reason     string            `gorm:"type:text;not null"`
	IsActive   bool              `gorm:"not null;column:is_active"`
}
