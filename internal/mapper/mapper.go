package mapper

import (
	"time"

	"github.com/straye-as/rfq-pricing-api/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ToRFQDTO converts RFQ to RFQDTO
func ToRFQDTO(rfq *domain.RFQ) domain.RFQDTO {
	items := make([]domain.RFQItemDTO, len(rfq.Items))
	for i := range rfq.Items {
		items[i] = ToRFQItemDTO(&rfq.Items[i])
	}
	return domain.RFQDTO{
		ID:          rfq.ID,
		CustomerID:  rfq.CustomerID,
		Reference:   rfq.Reference,
		ProjectType: rfq.ProjectType,
		Currency:    rfq.Currency,
		ReceivedAt:  formatTime(rfq.ReceivedAt),
		Items:       items,
	}
}

func ToRFQItemDTO(item *domain.RFQItem) domain.RFQItemDTO {
	dto := domain.RFQItemDTO{
		ID:                     item.ID,
		LineNumber:             item.LineNumber,
		MaterialID:             item.MaterialID,
		Category:               item.Category,
		Description:            item.Description,
		Quantity:               item.Quantity,
		Unit:                   item.Unit,
		RequestedOrigin:        item.RequestedOrigin,
		RequiredCertifications: []string(item.RequiredCertifications),
	}
	if item.Attributes != nil {
		attrs := item.Attributes.Data()
		dto.Attributes = &attrs
	}
	return dto
}

// ToPricingRunDTO converts PricingRun to PricingRunDTO. Items are included when loaded.
func ToPricingRunDTO(run *domain.PricingRun) domain.PricingRunDTO {
	dto := domain.PricingRunDTO{
		ID:                   run.ID,
		RFQID:                run.RFQID,
		Version:              run.Version,
		ApprovalStatus:       run.ApprovalStatus,
		IsLocked:             run.IsLocked,
		Currency:             run.Currency,
		TotalPrice:           run.TotalPrice,
		TotalFinalImportDuty: run.TotalFinalImportDuty,
		SupersedesRunID:      run.SupersedesRunID,
		CreatedBy:            run.CreatedByName,
		CreatedAt:            formatTime(run.CreatedAt),
		LockedAt:             formatTimePtr(run.LockedAt),
		SubmittedAt:          formatTimePtr(run.SubmittedAt),
		DecidedAt:            formatTimePtr(run.DecidedAt),
	}
	if len(run.Items) > 0 {
		dto.Items = make([]domain.PricingRunItemDTO, len(run.Items))
		for i := range run.Items {
			dto.Items[i] = ToPricingRunItemDTO(&run.Items[i])
		}
	}
	return dto
}

// ToPricingRunItemDTO converts PricingRunItem to PricingRunItemDTO.
// AllowedOrigins is never null in the response.
func ToPricingRunItemDTO(item *domain.PricingRunItem) domain.PricingRunItemDTO {
	allowed := []string(item.AllowedOrigins)
	if allowed == nil {
		allowed = []string{}
	}
	return domain.PricingRunItemDTO{
		ID:                    item.ID,
		RFQItemID:             item.RFQItemID,
		LineNumber:            item.LineNumber,
		Quantity:              item.Quantity,
		PricingMethod:         item.PricingMethod,
		PriceAgreementID:      item.PriceAgreementID,
		AgreementConditionID:  item.AgreementConditionID,
		PricingRuleID:         item.PricingRuleID,
		UnitPrice:             item.UnitPrice,
		TotalPrice:            item.TotalPrice,
		Currency:              item.Currency,
		BaseCost:              item.BaseCost,
		MarkupPct:             item.MarkupPct,
		LogisticsPct:          item.LogisticsPct,
		RiskPct:               item.RiskPct,
		LogisticsCost:         item.LogisticsCost,
		RiskCost:              item.RiskCost,
		OriginType:            item.OriginType,
		SupplierName:          item.SupplierName,
		HSCode:                item.HSCode,
		TradeAgreement:        item.TradeAgreement,
		FinalImportDutyRate:   item.FinalImportDutyRate,
		FinalImportDutyAmount: item.FinalImportDutyAmount,
		LandedUnitCost:        item.LandedUnitCost,
		DutyDegraded:          item.DutyDegraded,
		AllowedOrigins:        allowed,
		RecommendedOrigin:     item.RecommendedOrigin,
		RecommendationReason:  item.RecommendationReason,
		ManuallyAdjusted:      item.ManuallyAdjusted,
	}
}

func ToApprovalEventDTO(event *domain.ApprovalEvent) domain.ApprovalEventDTO {
	return domain.ApprovalEventDTO{
		ID:         event.ID,
		EventType:  event.EventType,
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		ActorID:    event.ActorID,
		ActorName:  event.ActorName,
		Reason:     event.Reason,
		CreatedAt:  formatTime(event.CreatedAt),
	}
}

// ToApprovalEventDTOs keeps the stored order
func ToApprovalEventDTOs(events []domain.ApprovalEvent) []domain.ApprovalEventDTO {
	dtos := make([]domain.ApprovalEventDTO, len(events))
	for i := range events {
		dtos[i] = ToApprovalEventDTO(&events[i])
	}
	return dtos
}
