package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an id when the caller did not
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// OriginType is the sourcing origin of a supplier option
type OriginType string

const (
	OriginChina    OriginType = "CHINA"
	OriginNonChina OriginType = "NON_CHINA"
	// OriginAny only appears on pricing rules and restrictions
	OriginAny OriginType = "ANY"
)

// IsValid reports whether o is a concrete sourcing origin
func (o OriginType) IsValid() bool {
	return o == OriginChina || o == OriginNonChina
}

// Tenant is an isolated customer organization of the platform
type Tenant struct {
	BaseModel
	Name                string     `gorm:"type:varchar(200);not null"`
	Currency            string     `gorm:"type:varchar(3);not null;default:'USD'"`
	DefaultOriginPolicy OriginType `gorm:"type:varchar(20);not null;default:'NON_CHINA';column:default_origin_policy"`
	ComplianceSensitive bool       `gorm:"not null;default:false;column:compliance_sensitive"`
}

// PreferredOrigin returns the origin that wins a landed cost tie
func (t *Tenant) PreferredOrigin() OriginType {
	if t.ComplianceSensitive || !t.DefaultOriginPolicy.IsValid() {
		return OriginNonChina
	}
	return t.DefaultOriginPolicy
}

// Customer is the buying client an RFQ belongs to
type Customer struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	ExternalRef string    `gorm:"type:varchar(100);column:external_ref"`
}

// RFQ is an inbound request for quotation
type RFQ struct {
	BaseModel
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Customer    *Customer `gorm:"foreignKey:CustomerID"`
	Reference   string    `gorm:"type:varchar(100)"`
	ProjectType *string   `gorm:"type:varchar(50);column:project_type"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	ReceivedAt  time.Time `gorm:"not null;column:received_at"`
	Items       []RFQItem `gorm:"foreignKey:RFQID"`
}

func (RFQ) TableName() string { return "rfqs" }

// RFQItem is a single requested line of an RFQ
type RFQItem struct {
	BaseModel
	TenantID               uuid.UUID                             `gorm:"type:uuid;not null;index"`
	RFQID                  uuid.UUID                             `gorm:"type:uuid;not null;index;column:rfq_id"`
	LineNumber             int                                   `gorm:"not null;column:line_number"`
	MaterialID             *string                               `gorm:"type:varchar(100);column:material_id"`
	Category               MaterialCategory                      `gorm:"type:varchar(20);not null"`
	Description            string                                `gorm:"type:text"`
	Quantity               decimal.Decimal                       `gorm:"type:decimal(15,4);not null"`
	Unit                   string                                `gorm:"type:varchar(20);not null"`
	RequestedOrigin        *OriginType                           `gorm:"type:varchar(20);column:requested_origin"`
	RequiredCertifications datatypes.JSONSlice[string]           `gorm:"column:required_certifications"`
	Attributes             *datatypes.JSONType[MaterialAttributes] `gorm:"column:attributes"`
}

func (RFQItem) TableName() string { return "rfq_items" }

// BeforeSave rejects attribute payloads that do not match the item category
func (i *RFQItem) BeforeSave(tx *gorm.DB) error {
	if i.Attributes == nil {
		return nil
	}
	return i.Attributes.Data().ValidateFor(i.Category)
}

// ApprovalStatus is the lifecycle state of a pricing run
type ApprovalStatus string

const (
	ApprovalStatusDraft           ApprovalStatus = "draft"
	ApprovalStatusLocked          ApprovalStatus = "locked"
	ApprovalStatusPendingApproval ApprovalStatus = "pending_approval"
	ApprovalStatusApproved        ApprovalStatus = "approved"
	ApprovalStatusRejected        ApprovalStatus = "rejected"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusDraft, ApprovalStatusLocked, ApprovalStatusPendingApproval, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// PricingRun is one priced version of an RFQ
type PricingRun struct {
	BaseModel
	TenantID             uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_pricing_runs_version,priority:1"`
	RFQID                uuid.UUID        `gorm:"type:uuid;not null;column:rfq_id;uniqueIndex:idx_pricing_runs_version,priority:2"`
	Version              int              `gorm:"not null;uniqueIndex:idx_pricing_runs_version,priority:3"`
	ApprovalStatus       ApprovalStatus   `gorm:"type:varchar(30);not null;default:'draft';column:approval_status"`
	IsLocked             bool             `gorm:"not null;default:false;column:is_locked"`
	Currency             string           `gorm:"type:varchar(3);not null"`
	TotalPrice           decimal.Decimal  `gorm:"type:decimal(15,4);not null;column:total_price"`
	TotalFinalImportDuty decimal.Decimal  `gorm:"type:decimal(15,4);not null;column:total_final_import_duty"`
	SupersedesRunID      *uuid.UUID       `gorm:"type:uuid;column:supersedes_run_id"`
	CreatedByID          string           `gorm:"type:varchar(100);column:created_by_id"`
	CreatedByName        string           `gorm:"type:varchar(200);column:created_by_name"`
	SubmittedByID        string           `gorm:"type:varchar(100);column:submitted_by_id"`
	LockedAt             *time.Time       `gorm:"column:locked_at"`
	SubmittedAt          *time.Time       `gorm:"column:submitted_at"`
	DecidedAt            *time.Time       `gorm:"column:decided_at"`
	SnapshotPath         string           `gorm:"type:varchar(500);column:snapshot_path"`
	Items                []PricingRunItem `gorm:"foreignKey:PricingRunID"`
}

// PricingMethod records which pricing path produced an item
type PricingMethod string

const (
	PricingMethodAgreementV2 PricingMethod = "agreement_v2"
	PricingMethodAgreementV1 PricingMethod = "agreement_v1"
	PricingMethodRuleBased   PricingMethod = "rule_based"
)

// PricingRunItem is the priced result for one RFQ item
type PricingRunItem struct {
	BaseModel
	TenantID              uuid.UUID                   `gorm:"type:uuid;not null;index"`
	PricingRunID          uuid.UUID                   `gorm:"type:uuid;not null;index;column:pricing_run_id"`
	RFQItemID             uuid.UUID                   `gorm:"type:uuid;not null;column:rfq_item_id"`
	LineNumber            int                         `gorm:"not null;column:line_number"`
	Quantity              decimal.Decimal             `gorm:"type:decimal(15,4);not null"`
	Currency              string                      `gorm:"type:varchar(3);not null"`
	UnitPrice             decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:unit_price"`
	TotalPrice            decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:total_price"`
	BaseCost              decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:base_cost"`
	MarkupPct             decimal.Decimal             `gorm:"type:decimal(9,6);not null;column:markup_pct"`
	LogisticsPct          decimal.Decimal             `gorm:"type:decimal(9,6);not null;column:logistics_pct"`
	RiskPct               decimal.Decimal             `gorm:"type:decimal(9,6);not null;column:risk_pct"`
	MarkupAmount          decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:markup_amount"`
	LogisticsCost         decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:logistics_cost"`
	RiskCost              decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:risk_cost"`
	PricingMethod         PricingMethod               `gorm:"type:varchar(20);not null;column:pricing_method"`
	PriceAgreementID      *uuid.UUID                  `gorm:"type:uuid;column:price_agreement_id"`
	AgreementConditionID  *uuid.UUID                  `gorm:"type:uuid;column:agreement_condition_id"`
	PricingRuleID         *uuid.UUID                  `gorm:"type:uuid;column:pricing_rule_id"`
	OriginType            OriginType                  `gorm:"type:varchar(20);not null;column:origin_type"`
	SupplierName          string                      `gorm:"type:varchar(200);column:supplier_name"`
	CountryOfOrigin       string                      `gorm:"type:varchar(2);column:country_of_origin"`
	HSCode                string                      `gorm:"type:varchar(20);column:hs_code"`
	TradeAgreement        string                      `gorm:"type:varchar(100);column:trade_agreement"`
	FinalImportDutyRate   decimal.Decimal             `gorm:"type:decimal(9,6);not null;column:final_import_duty_rate"`
	FinalImportDutyAmount decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:final_import_duty_amount"`
	LandedUnitCost        decimal.Decimal             `gorm:"type:decimal(15,4);not null;column:landed_unit_cost"`
	DutyDegraded          bool                        `gorm:"not null;default:false;column:duty_degraded"`
	AllowedOrigins        datatypes.JSONSlice[string] `gorm:"column:allowed_origins"`
	RecommendedOrigin     OriginType                  `gorm:"type:varchar(20);column:recommended_origin"`
	RecommendationReason  string                      `gorm:"type:text;column:recommendation_reason"`
	ManuallyAdjusted      bool                        `gorm:"not null;default:false;column:manually_adjusted"`
}

// ApprovalEventType names a lifecycle transition
type ApprovalEventType string

const (
	ApprovalEventLocked    ApprovalEventType = "locked"
	ApprovalEventSubmitted ApprovalEventType = "submitted"
	ApprovalEventApproved  ApprovalEventType = "approved"
	ApprovalEventRejected  ApprovalEventType = "rejected"
)

// ApprovalEvent is one append-only entry of a run's approval history
type ApprovalEvent struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	PricingRunID uuid.UUID         `gorm:"type:uuid;not null;index;column:pricing_run_id"`
	EventType    ApprovalEventType `gorm:"type:varchar(20);not null;column:event_type"`
	FromStatus   ApprovalStatus    `gorm:"type:varchar(30);not null;column:from_status"`
	ToStatus     ApprovalStatus    `gorm:"type:varchar(30);not null;column:to_status"`
	ActorID      string            `gorm:"type:varchar(100);not null;column:actor_id"`
	ActorName    string            `gorm:"type:varchar(200);column:actor_name"`
	ActorRoles   string            `gorm:"type:varchar(500);column:actor_roles"`
	Reason       string            `gorm:"type:text"`
	CreatedAt    time.Time         `gorm:"not null"`
}

func (e *ApprovalEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate refuses any change to a recorded event
func (e *ApprovalEvent) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete refuses removal unless the statement carries an audit purge grant
func (e *ApprovalEvent) BeforeDelete(tx *gorm.DB) error {
	if _, ok := tx.Statement.Context.Value(purgeGrantKey{}).(uuid.UUID); ok {
		return nil
	}
	return ErrAuditImmutable
}

// AuditPurgeGrant authorizes deletion of one run's approval events
type AuditPurgeGrant struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null"`
	PricingRunID uuid.UUID `gorm:"type:uuid;not null;index;column:pricing_run_id"`
	Actor        string    `gorm:"type:varchar(200);not null"`
	Reason       string    `gorm:"type:text;not null"`
	Environment  string    `gorm:"type:varchar(50);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (g *AuditPurgeGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
