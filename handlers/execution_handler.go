package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clearrule/policy-control-plane/middleware"
	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/services/execution"
	"github.com/clearrule/policy-control-plane/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ExecuteRequest represents a request to execute a policy
type ExecuteRequest struct {
	Input  json.RawMessage `json:"input" validate:"required"`
	Source string          `json:"source,omitempty" validate:"omitempty,oneof=web api scheduled"`
}

// ExecutionHandler handles policy execution HTTP requests
type ExecutionHandler struct {
	service *execution.Service
	logger  *zap.Logger
}

// NewExecutionHandler creates a new ExecutionHandler
func NewExecutionHandler(service *execution.Service, logger *zap.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		service: service,
		logger:  logger,
	}
}

// HandleExecute handles POST /api/v1/policies/{id}/execute. A denied request
// maps through the domain error taxonomy (404 opaque, 403 frozen, 429 quota);
// an evaluation that ran but failed is a 200 with success=false.
func (h *ExecutionHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserIDFromContext(ctx)

	policyID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid policy ID", nil)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if req.Source == "" {
		req.Source = string(models.SourceAPI)
	}

	result, err := h.service.Execute(ctx, policyID, callerID, req.Input, models.ExecutionSource(req.Source))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, result)
}
