package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"go.uber.org/zap"
)

type PricingRunHandler struct {
	runService *service.PricingRunService
	logger     *zap.Logger
}

func NewPricingRunHandler(runService *service.PricingRunService, logger *zap.Logger) *PricingRunHandler {
	return &PricingRunHandler{
		runService: runService,
		logger:     logger,
	}
}

// Create godoc
// @Summary Price an RFQ
// @Description Creates a new draft pricing run for the RFQ. Every item is priced from a customer agreement,
// @Description a legacy price agreement or the pricing rules with a CHINA / NON_CHINA landed cost comparison.
// @Description A failure on any item leaves no run behind.
// @Tags Pricing Runs
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 201 {object} domain.PricingRunDTO
// @Failure 400 {object} domain.APIError "RFQ items failed validation"
// @Failure 404 {object} domain.APIError "RFQ not found"
// @Failure 409 {object} domain.APIError "Current run is pending approval"
// @Failure 422 {object} domain.APIError "No applicable pricing rule or allowed origin"
// @Failure 502 {object} domain.APIError "Catalog or regulatory lookup failed"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id}/pricing-runs [post]
func (h *PricingRunHandler) Create(w http.ResponseWriter, r *http.Request) {
	rfqID, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid RFQ ID")
		return
	}

	run, err := h.runService.CreatePricingRun(r.Context(), rfqID)
	if err != nil {
		h.handlePricingRunError(w, err, zap.String("rfq_id", rfqID.String()))
		return
	}

	w.Header().Set("Location", "/api/v1/pricing-runs/"+run.ID.String())
	respondJSON(w, http.StatusCreated, run)
}

// GetCurrent godoc
// @Summary Get the current pricing run of an RFQ
// @Description Returns the highest version run with its items.
// @Tags Pricing Runs
// @Produce json
// @Param id path string true "RFQ ID"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rfqs/{id}/pricing-runs/current [get]
func (h *PricingRunHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	rfqID, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid RFQ ID")
		return
	}

	run, err := h.runService.GetCurrentPricingRun(r.Context(), rfqID)
	if err != nil {
		h.handlePricingRunError(w, err, zap.String("rfq_id", rfqID.String()))
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// List godoc
// @Summary List pricing runs
// @Tags Pricing Runs
// @Produce json
// @Param rfqId query string false "Filter by RFQ"
// @Param status query string false "Filter by approval status" Enums(draft, locked, pending_approval, approved, rejected)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PricingRunDTO}
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing-runs [get]
func (h *PricingRunHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	var filter repository.PricingRunFilter
	if v := r.URL.Query().Get("rfqId"); v != "" {
		rfqID, err := uuid.Parse(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid rfqId")
			return
		}
		filter.RFQID = &rfqID
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.ApprovalStatus(v)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.ApprovalStatus = &status
	}

	result, err := h.runService.ListPricingRuns(r.Context(), filter, page, pageSize)
	if err != nil {
		h.handlePricingRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get pricing run
// @Tags Pricing Runs
// @Produce json
// @Param id path string true "Pricing run ID"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing-runs/{id} [get]
func (h *PricingRunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	run, err := h.runService.GetPricingRun(r.Context(), id)
	if err != nil {
		h.handlePricingRunError(w, err, zap.String("pricing_run_id", id.String()))
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Reprice godoc
// @Summary Reprice a draft pricing run
// @Description Recomputes every item of a draft run against current agreements, rules and catalog data.
// @Tags Pricing Runs
// @Produce json
// @Param id path string true "Pricing run ID"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Run is locked"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing-runs/{id}/reprice [post]
func (h *PricingRunHandler) Reprice(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	run, err := h.runService.RepricePricingRun(r.Context(), id)
	if err != nil {
		h.handlePricingRunError(w, err, zap.String("pricing_run_id", id.String()))
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// UpdateItem godoc
// @Summary Adjust a pricing run item
// @Description Overrides quantity or unit price of an item while the run is a draft.
// @Tags Pricing Runs
// @Accept json
// @Produce json
// @Param id path string true "Pricing run ID"
// @Param itemId path string true "Item ID"
// @Param request body domain.UpdatePricingRunItemRequest true "Override"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Run is locked"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing-runs/{id}/items/{itemId} [patch]
func (h *PricingRunHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}
	itemID, err := pathUUID(r, "itemId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req domain.UpdatePricingRunItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	run, err := h.runService.UpdatePricingRunItem(r.Context(), id, itemID, &req)
	if err != nil {
		h.handlePricingRunError(w, err, zap.String("pricing_run_id", id.String()), zap.String("item_id", itemID.String()))
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (h *PricingRunHandler) handlePricingRunError(w http.ResponseWriter, err error, fields ...zap.Field) {
	status, _ := serviceErrorStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error("pricing run request failed", append(fields, zap.Error(err))...)
	case status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		h.logger.Info("pricing run request rejected", append(fields, zap.Error(err))...)
	}
	respondServiceError(w, err)
}
