package handler

import (
	"encoding/json"
	"net/http"

	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"go.uber.org/zap"
)

type RFQHandler struct {
	rfqService *service.RFQService
	logger     *zap.Logger
}

func NewRFQHandler(rfqService *service.RFQService, logger *zap.Logger) *RFQHandler {
	return &RFQHandler{
		rfqService: rfqService,
		logger:     logger,
	}
}

// Create godoc
// @Summary Accept an RFQ from ingestion
// @Description Stores a normalized RFQ with its line items. Item attributes must match the item category.
// @Tags RFQs
// @Accept json
// @Produce json
// @Param request body domain.CreateRFQRequest true "RFQ with items"
// @Success 201 {object} domain.RFQDTO
// @Failure 400 {object} domain.APIError "Validation failed"
// @Failure 403 {object} domain.APIError "Tenant isolation violation"
// @Failure 404 {object} domain.APIError "Customer not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs [post]
func (h *RFQHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRFQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	rfq, err := h.rfqService.Create(r.Context(), &req)
	if err != nil {
		h.handleRFQError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/rfqs/"+rfq.ID.String())
	respondJSON(w, http.StatusCreated, rfq)
}

// GetByID godoc
// @Summary Get RFQ
// @Tags RFQs
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 200 {object} domain.RFQDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id} [get]
func (h *RFQHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid RFQ ID")
		return
	}

	rfq, err := h.rfqService.GetByID(r.Context(), id)
	if err != nil {
		h.handleRFQError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rfq)
}

func (h *RFQHandler) handleRFQError(w http.ResponseWriter, err error) {
	if status, _ := serviceErrorStatus(err); status >= http.StatusInternalServerError {
		h.logger.Error("rfq request failed", zap.Error(err))
	}
	respondServiceError(w, err)
}
