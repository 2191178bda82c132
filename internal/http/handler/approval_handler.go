package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/service"
	"go.uber.org/zap"
)

type ApprovalHandler struct {
	approvalService *service.ApprovalService
	logger          *zap.Logger
}

func NewApprovalHandler(approvalService *service.ApprovalService, logger *zap.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		logger:          logger,
	}
}

// decodeOptional decodes a JSON body into target. An empty body leaves target untouched.
func decodeOptional(r *http.Request, target interface{}) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Lock godoc
// @Summary Lock a draft pricing run
// @Description Freezes the run. Items can no longer be adjusted.
// @Tags Approval
// @Produce json
// @Param id path string true "Pricing run ID"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Run is not a draft"
// @Security BearerAuth
// @Router /pricing-runs/{id}/lock [post]
func (h *ApprovalHandler) Lock(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	run, err := h.approvalService.Lock(r.Context(), id)
	if err != nil {
		h.handleApprovalError(w, err, "lock")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Submit godoc
// @Summary Submit a locked pricing run for approval
// @Tags Approval
// @Accept json
// @Produce json
// @Param id path string true "Pricing run ID"
// @Param request body domain.SubmitPricingRunRequest false "Optional comment"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Run is not locked"
// @Security BearerAuth
// @Router /pricing-runs/{id}/submit [post]
func (h *ApprovalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	var req domain.SubmitPricingRunRequest
	if err := decodeOptional(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	run, err := h.approvalService.Submit(r.Context(), id, &req)
	if err != nil {
		h.handleApprovalError(w, err, "submit")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Approve godoc
// @Summary Approve a pricing run
// @Description Requires pricing:approve. The submitter cannot approve their own submission.
// @Tags Approval
// @Accept json
// @Produce json
// @Param id path string true "Pricing run ID"
// @Param request body domain.ApprovePricingRunRequest false "Optional comment"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Run is not pending approval"
// @Security BearerAuth
// @Router /pricing-runs/{id}/approve [post]
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	var req domain.ApprovePricingRunRequest
	if err := decodeOptional(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	run, err := h.approvalService.Approve(r.Context(), id, &req)
	if err != nil {
		h.handleApprovalError(w, err, "approve")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Reject godoc
// @Summary Reject a pricing run
// @Description Requires pricing:approve and a reason. Rejected runs are final; price the RFQ again to continue.
// @Tags Approval
// @Accept json
// @Produce json
// @Param id path string true "Pricing run ID"
// @Param request body domain.RejectPricingRunRequest true "Rejection reason"
// @Success 200 {object} domain.PricingRunDTO
// @Failure 400 {object} domain.APIError "Reason missing"
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Run is not pending approval"
// @Security BearerAuth
// @Router /pricing-runs/{id}/reject [post]
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	var req domain.RejectPricingRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	run, err := h.approvalService.Reject(r.Context(), id, &req)
	if err != nil {
		h.handleApprovalError(w, err, "reject")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// History godoc
// @Summary Approval history of a pricing run
// @Tags Approval
// @Produce json
// @Param id path string true "Pricing run ID"
// @Success 200 {array} domain.ApprovalEventDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing-runs/{id}/approval-history [get]
func (h *ApprovalHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	events, err := h.approvalService.History(r.Context(), id)
	if err != nil {
		h.handleApprovalError(w, err, "history")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// Snapshot godoc
// @Summary Archived snapshot of an approved pricing run
// @Tags Approval
// @Produce json
// @Param id path string true "Pricing run ID"
// @Success 200 {object} service.RunSnapshot
// @Failure 404 {object} domain.APIError "Run not found or not archived"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /pricing-runs/{id}/snapshot [get]
func (h *ApprovalHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid pricing run ID")
		return
	}

	rc, err := h.approvalService.Snapshot(r.Context(), id)
	if err != nil {
		h.handleApprovalError(w, err, "snapshot")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream snapshot", zap.String("pricing_run_id", id.String()), zap.Error(err))
	}
}

func (h *ApprovalHandler) handleApprovalError(w http.ResponseWriter, err error, action string) {
	status, _ := serviceErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("approval request failed", zap.String("action", action), zap.Error(err))
	} else if status == http.StatusForbidden {
		h.logger.Warn("approval request denied", zap.String("action", action), zap.Error(err))
	}
	respondServiceError(w, err)
}
