package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/mapper"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// RFQService accepts RFQs handed off by ingestion and serves them back
type RFQService struct {
	rfqRepo      *repository.RFQRepository
	customerRepo *repository.CustomerRepository
	logger       *zap.Logger
}

func NewRFQService(rfqRepo *repository.RFQRepository, customerRepo *repository.CustomerRepository, logger *zap.Logger) *RFQService {
	return &RFQService{rfqRepo: rfqRepo, customerRepo: customerRepo, logger: logger}
}

// Create stores a new RFQ. Field level problems are reported together in one ValidationError.
func (s *RFQService) Create(ctx context.Context, req *domain.CreateRFQRequest) (*domain.RFQDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if verr := validateRFQRequest(req); verr.HasErrors() {
		return nil, verr
	}

	if _, err := s.customerRepo.GetByID(ctx, scope, req.CustomerID); err != nil {
		return nil, lookupError(err, domain.ErrCustomerNotFound, "customer")
	}

	receivedAt := time.Now().UTC()
	if req.ReceivedAt != nil {
		receivedAt = req.ReceivedAt.UTC()
	}

	rfq := &domain.RFQ{
		CustomerID:  req.CustomerID,
		Reference:   req.Reference,
		ProjectType: req.ProjectType,
		Currency:    req.Currency,
		ReceivedAt:  receivedAt,
	}
	for _, line := range req.Items {
		item := domain.RFQItem{
			LineNumber:             line.LineNumber,
			MaterialID:             line.MaterialID,
			Category:               line.Category,
			Description:            line.Description,
			Quantity:               line.Quantity,
			Unit:                   line.Unit,
			RequestedOrigin:        line.RequestedOrigin,
			RequiredCertifications: datatypes.JSONSlice[string](line.RequiredCertifications),
		}
		if line.Attributes != nil {
			attrs := datatypes.NewJSONType(*line.Attributes)
			item.Attributes = &attrs
		}
		rfq.Items = append(rfq.Items, item)
	}

	if err := s.rfqRepo.Create(ctx, scope, rfq); err != nil {
		return nil, fmt.Errorf("failed to create rfq: %w", err)
	}

	s.logger.Info("rfq received",
		zap.String("tenant_id", scope.TenantID().String()),
		zap.String("rfq_id", rfq.ID.String()),
		zap.Int("items", len(rfq.Items)),
	)

	dto := mapper.ToRFQDTO(rfq)
	return &dto, nil
}

func (s *RFQService) GetByID(ctx context.Context, id uuid.UUID) (*domain.RFQDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rfq, err := s.rfqRepo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, lookupError(err, domain.ErrRFQNotFound, "rfq")
	}

	dto := mapper.ToRFQDTO(rfq)
	return &dto, nil
}

// validateRFQRequest checks what struct tags cannot: positive quantities, unique lines and attribute variants
func validateRFQRequest(req *domain.CreateRFQRequest) *domain.ValidationError {
	verr := domain.NewValidationError()
	if len(req.Items) == 0 {
		verr.Add("items", "at least one item is required")
	}

	seen := make(map[int]bool, len(req.Items))
	for i, line := range req.Items {
		field := "items[" + strconv.Itoa(i) + "]"
		if seen[line.LineNumber] {
			verr.Add(field+".lineNumber", "duplicate line number")
		}
		seen[line.LineNumber] = true

		if !line.Category.IsValid() {
			verr.Add(field+".category", "unknown material category")
		}
		if !line.Quantity.IsPositive() {
			verr.Add(field+".quantity", "must be greater than zero")
		}
		if line.RequestedOrigin != nil && !line.RequestedOrigin.IsValid() {
			verr.Add(field+".requestedOrigin", "must be CHINA or NON_CHINA")
		}
		if line.Attributes != nil {
			if err := line.Attributes.ValidateFor(line.Category); err != nil {
				verr.Add(field+".attributes", err.Error())
			}
		}
	}
	return verr
}

// validateForPricing re-checks stored items before a run is started so no partial work happens
func validateForPricing(rfq *domain.RFQ) error {
	verr := domain.NewValidationError()
	if len(rfq.Items) == 0 {
		verr.Add("items", "rfq has no items to price")
	}
	if len(rfq.Currency) != 3 {
		verr.Add("currency", "must be an ISO 4217 code")
	}
	for _, item := range rfq.Items {
		field := "items[line " + strconv.Itoa(item.LineNumber) + "]"
		if !item.Category.IsValid() {
			verr.Add(field+".category", "unknown material category")
		}
		if !item.Quantity.IsPositive() {
			verr.Add(field+".quantity", "must be greater than zero")
		}
		if item.RequestedOrigin != nil && !item.RequestedOrigin.IsValid() {
			verr.Add(field+".requestedOrigin", "must be CHINA or NON_CHINA")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
