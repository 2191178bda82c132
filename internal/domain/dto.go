package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Monetary values are serialized as decimal strings

type RFQDTO struct {
	ID          uuid.UUID    `json:"id"`
	CustomerID  uuid.UUID    `json:"customerId"`
	Reference   string       `json:"reference,omitempty"`
	ProjectType *string      `json:"projectType,omitempty"`
	Currency    string       `json:"currency"`
	ReceivedAt  string       `json:"receivedAt"` // ISO 8601
	Items       []RFQItemDTO `json:"items"`
}

type RFQItemDTO struct {
	ID                     uuid.UUID           `json:"id"`
	LineNumber             int                 `json:"lineNumber"`
	MaterialID             *string             `json:"materialId,omitempty"`
	Category               MaterialCategory    `json:"category"`
	Description            string              `json:"description,omitempty"`
	Quantity               decimal.Decimal     `json:"quantity"`
	Unit                   string              `json:"unit"`
	RequestedOrigin        *OriginType         `json:"requestedOrigin,omitempty"`
	RequiredCertifications []string            `json:"requiredCertifications,omitempty"`
	Attributes             *MaterialAttributes `json:"attributes,omitempty"`
}

type PricingRunDTO struct {
	ID                   uuid.UUID           `json:"id"`
	RFQID                uuid.UUID           `json:"rfqId"`
	Version              int                 `json:"version"`
	ApprovalStatus       ApprovalStatus      `json:"approvalStatus"`
	IsLocked             bool                `json:"isLocked"`
	Currency             string              `json:"currency"`
	TotalPrice           decimal.Decimal     `json:"totalPrice"`
	TotalFinalImportDuty decimal.Decimal     `json:"totalFinalImportDuty"`
	SupersedesRunID      *uuid.UUID          `json:"supersedesRunId,omitempty"`
	CreatedBy            string              `json:"createdBy,omitempty"`
	CreatedAt            string              `json:"createdAt"`
	LockedAt             *string             `json:"lockedAt,omitempty"`
	SubmittedAt          *string             `json:"submittedAt,omitempty"`
	DecidedAt            *string             `json:"decidedAt,omitempty"`
	Items                []PricingRunItemDTO `json:"items,omitempty"`
}

type PricingRunItemDTO struct {
	ID                    uuid.UUID       `json:"id"`
	RFQItemID             uuid.UUID       `json:"rfqItemId"`
	LineNumber            int             `json:"lineNumber"`
	Quantity              decimal.Decimal `json:"quantity"`
	PricingMethod         PricingMethod   `json:"pricingMethod"`
	PriceAgreementID      *uuid.UUID      `json:"priceAgreementId"`
	AgreementConditionID  *uuid.UUID      `json:"agreementConditionId,omitempty"`
	PricingRuleID         *uuid.UUID      `json:"pricingRuleId,omitempty"`
	UnitPrice             decimal.Decimal `json:"unitPrice"`
	TotalPrice            decimal.Decimal `json:"totalPrice"`
	Currency              string          `json:"currency"`
	BaseCost              decimal.Decimal `json:"baseCost"`
	MarkupPct             decimal.Decimal `json:"markupPct"`
	LogisticsPct          decimal.Decimal `json:"logisticsPct"`
	RiskPct               decimal.Decimal `json:"riskPct"`
	LogisticsCost         decimal.Decimal `json:"logisticsCost"`
	RiskCost              decimal.Decimal `json:"riskCost"`
	OriginType            OriginType      `json:"originType"`
	SupplierName          string          `json:"supplierName,omitempty"`
	HSCode                string          `json:"hsCode,omitempty"`
	TradeAgreement        string          `json:"tradeAgreement,omitempty"`
	FinalImportDutyRate   decimal.Decimal `json:"finalImportDutyRate"`
	FinalImportDutyAmount decimal.Decimal `json:"finalImportDutyAmount"`
	LandedUnitCost        decimal.Decimal `json:"landedUnitCost"`
	DutyDegraded          bool            `json:"dutyDegraded,omitempty"`
	AllowedOrigins        []string        `json:"allowedOrigins"`
	RecommendedOrigin     OriginType      `json:"recommendedOrigin,omitempty"`
	RecommendationReason  string          `json:"recommendationReason,omitempty"`
	ManuallyAdjusted      bool            `json:"manuallyAdjusted,omitempty"`
}

type ApprovalEventDTO struct {
	ID         uuid.UUID         `json:"id"`
	EventType  ApprovalEventType `json:"eventType"`
	FromStatus ApprovalStatus    `json:"fromStatus"`
	ToStatus   ApprovalStatus    `json:"toStatus"`
	ActorID    string            `json:"actorId"`
	ActorName  string            `json:"actorName,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	CreatedAt  string            `json:"createdAt"`
}

// PaginatedResponse wraps list endpoints
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateRFQRequest struct {
	CustomerID  uuid.UUID              `json:"customerId" validate:"required"`
	Reference   string                 `json:"reference,omitempty" validate:"max=100"`
	ProjectType *string                `json:"projectType,omitempty" validate:"omitempty,max=50"`
	Currency    string                 `json:"currency" validate:"required,len=3"`
	ReceivedAt  *time.Time             `json:"receivedAt,omitempty"`
	Items       []CreateRFQItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateRFQItemRequest struct {
	LineNumber             int                 `json:"lineNumber" validate:"required,gt=0"`
	MaterialID             *string             `json:"materialId,omitempty" validate:"omitempty,max=100"`
	Category               MaterialCategory    `json:"category" validate:"required,oneof=pipe flange fitting grating"`
	Description            string              `json:"description,omitempty"`
	Quantity               decimal.Decimal     `json:"quantity"`
	Unit                   string              `json:"unit" validate:"required,max=20"`
	RequestedOrigin        *OriginType         `json:"requestedOrigin,omitempty" validate:"omitempty,oneof=CHINA NON_CHINA"`
	RequiredCertifications []string            `json:"requiredCertifications,omitempty"`
	Attributes             *MaterialAttributes `json:"attributes,omitempty"`
}

type UpdatePricingRunItemRequest struct {
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type SubmitPricingRunRequest struct {
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type ApprovePricingRunRequest struct {
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type RejectPricingRunRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}
