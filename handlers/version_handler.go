package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clearrule/policy-control-plane/middleware"
	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/services"
	"github.com/clearrule/policy-control-plane/services/versions"
	"github.com/clearrule/policy-control-plane/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateDraftRequest represents a request to create a draft version
type CreateDraftRequest struct {
	PolicyID    uuid.UUID `json:"policy_id" validate:"required"`
	Source      string    `json:"source" validate:"required"`
	ReleaseNote string    `json:"release_note,omitempty"`
}

// ReviewRequest carries the reviewer's comment for approve and reject
type ReviewRequest struct {
	Comment string `json:"comment,omitempty"`
}

// RetireRequest carries the optional reason for deprecate and archive
type RetireRequest struct {
	Reason string `json:"reason,omitempty"`
}

// VersionResponse represents a policy version in API responses
type VersionResponse struct {
	ID          uuid.UUID            `json:"id"`
	PolicyID    uuid.UUID            `json:"policy_id"`
	Version     int                  `json:"version"`
	Status      models.VersionStatus `json:"status"`
	IsDefault   bool                 `json:"is_default"`
	Source      string               `json:"source"`
	SourceHash  string               `json:"source_hash"`
	ReleaseNote string               `json:"release_note,omitempty"`
	CreatedBy   uuid.UUID            `json:"created_by"`
	CreatedAt   string               `json:"created_at"`
}

// VersionHandler handles version lifecycle HTTP requests
type VersionHandler struct {
	service *versions.Service
	logger  *zap.Logger
}

// NewVersionHandler creates a new VersionHandler
func NewVersionHandler(service *versions.Service, logger *zap.Logger) *VersionHandler {
	return &VersionHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreateDraft handles POST /api/v1/versions
func (h *VersionHandler) HandleCreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := middleware.GetUserIDFromContext(ctx)

	var req CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	version, err := h.service.CreateDraft(ctx, req.PolicyID, callerID, req.Source, req.ReleaseNote)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, versionToResponse(version))
}

// HandleSubmit handles POST /api/v1/versions/{id}/submit
func (h *VersionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error) {
		return h.service.Submit(r.Context(), versionID, callerID)
	})
}

// HandleApprove handles POST /api/v1/versions/{id}/approve
func (h *VersionHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error) {
		var req ReviewRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.service.Approve(r.Context(), versionID, callerID, req.Comment)
	})
}

// HandleReject handles POST /api/v1/versions/{id}/reject
func (h *VersionHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error) {
		var req ReviewRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.service.Reject(r.Context(), versionID, callerID, req.Comment)
	})
}

// HandlePromote handles POST /api/v1/versions/{id}/promote
func (h *VersionHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error) {
		return h.service.PromoteDefault(r.Context(), versionID, callerID)
	})
}

// HandleDeprecate handles POST /api/v1/versions/{id}/deprecate
func (h *VersionHandler) HandleDeprecate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error) {
		var req RetireRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.service.Deprecate(r.Context(), versionID, callerID, req.Reason)
	})
}

// HandleArchive handles POST /api/v1/versions/{id}/archive
func (h *VersionHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error) {
		var req RetireRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			return nil, err
		}
		return h.service.Archive(r.Context(), versionID, callerID, req.Reason)
	})
}

// HandleListVersions handles GET /api/v1/policies/{id}/versions
func (h *VersionHandler) HandleListVersions(w http.ResponseWriter, r *http.Request) {
	policyID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid policy ID", nil)
		return
	}
	callerID := middleware.GetUserIDFromContext(r.Context())

	list, err := h.service.ListVersions(r.Context(), policyID, callerID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]VersionResponse, len(list))
	for i, v := range list {
		responses[i] = versionToResponse(v)
	}
	_ = utils.WriteOK(w, responses)
}

// transition runs one lifecycle action against the version named in the URL
func (h *VersionHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(versionID, callerID uuid.UUID, r *http.Request) (*models.PolicyVersion, error)) {

	versionID, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid version ID", nil)
		return
	}
	callerID := middleware.GetUserIDFromContext(r.Context())

	version, err := fn(versionID, callerID, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, versionToResponse(version))
}

// decodeOptionalBody decodes a JSON body when present; an empty body is fine.
// A malformed body is a validation error, mapped to 400 by HandleServiceError.
func decodeOptionalBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return services.NewDomainError(services.ErrorTypeValidation, "invalid request body", err)
	}
	return nil
}

// versionToResponse converts a model to an API response
func versionToResponse(v *models.PolicyVersion) VersionResponse {
	return VersionResponse{
		ID:          v.ID,
		PolicyID:    v.PolicyID,
		Version:     v.Version,
		Status:      v.Status,
		IsDefault:   v.IsDefault,
		Source:      v.Source,
		SourceHash:  v.SourceHash,
		ReleaseNote: v.ReleaseNote,
		CreatedBy:   v.CreatedBy,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}
