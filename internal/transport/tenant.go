package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type issueKeyRequest struct {
	ProjectID   *string `json:"project_id,omitempty"`
	Description string  `json:"description,omitempty"`
}

type bootstrapRequest struct {
	TenantName string `json:"tenant_name"`
}

// handleListTenants returns the tenants visible to the presented key, which
// is at most the key's own tenant.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	key, _ := KeyFromContext(r.Context())

	tenants, err := s.secrets.ListTenants(r.Context())
	if err != nil {
		s.logger.Error("failed to list tenants", "error", err)
		writeInternalError(w)
		return
	}

	visible := make([]secret.Tenant, 0, 1)
	for _, t := range tenants {
		if key.HasTenantAccess(t.ID) {
			visible = append(visible, t)
		}
	}
	writeJSON(w, http.StatusOK, visible)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	key, _ := KeyFromContext(r.Context())
	rawTenantID := chi.URLParam(r, "tenantID")

	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil {
		writeTenantNotFound(w, rawTenantID)
		return
	}

	tenant, err := s.secrets.GetTenant(r.Context(), tenantID)
	if err != nil && !errors.Is(err, secret.ErrTenantNotFound) {
		s.logger.Error("failed to get tenant", "tenant_id", tenantID, "error", err)
		writeInternalError(w)
		return
	}

	// Denied access renders exactly like an absent tenant.
	if tenant == nil || !key.HasTenantAccess(tenantID) {
		writeTenantNotFound(w, rawTenantID)
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

// handleIssueKey mints an API key for a tenant, optionally narrowed to one
// of its projects. Tenant-level denial is a plain 403: no child-resource
// identity is being probed at this scope.
func (s *Server) handleIssueKey(w http.ResponseWriter, r *http.Request) {
	key, _ := KeyFromContext(r.Context())
	rawTenantID := chi.URLParam(r, "tenantID")

	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil || !key.HasTenantAccess(tenantID) {
		writeMessage(w, http.StatusForbidden, "Access denied to this tenant")
		return
	}

	var req issueKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil {
		id, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			writeProjectNotFound(w, rawTenantID, *req.ProjectID)
			return
		}
		tenant, err := s.secrets.GetTenant(r.Context(), tenantID)
		if err != nil && !errors.Is(err, secret.ErrTenantNotFound) {
			s.logger.Error("failed to get tenant", "tenant_id", tenantID, "error", err)
			writeInternalError(w)
			return
		}
		if tenant == nil || tenant.FindProject(id) == nil {
			writeProjectNotFound(w, rawTenantID, *req.ProjectID)
			return
		}
		projectID = &id
	}

	issued, raw, err := s.keys.Issue(r.Context(), tenantID, projectID, req.Description)
	if err != nil {
		s.logger.Error("failed to issue api key", "tenant_id", tenantID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         issued.ID,
		"tenant_id":  issued.TenantID,
		"project_id": issued.ProjectID,
		"api_key":    raw,
	})
}

// handleBootstrap provisions the first tenant together with a tenant-wide
// key. It only works while the store is empty; afterwards it answers 409.
func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	var req bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := s.secrets.CountTenants(r.Context())
	if err != nil {
		s.logger.Error("failed to count tenants", "error", err)
		writeInternalError(w)
		return
	}
	if count > 0 {
		writeMessage(w, http.StatusConflict, "already bootstrapped")
		return
	}

	tenantID, err := s.secrets.CreateTenant(r.Context(), req.TenantName)
	if err != nil {
		if errors.Is(err, secret.ErrInvalidInput) {
			writeMessage(w, http.StatusBadRequest, "tenant_name is required")
			return
		}
		s.logger.Error("failed to create tenant", "error", err)
		writeInternalError(w)
		return
	}

	issued, raw, err := s.keys.Issue(r.Context(), tenantID, nil, "bootstrap key")
	if err != nil {
		s.logger.Error("failed to issue bootstrap key", "tenant_id", tenantID, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"tenant_id": tenantID,
		"key_id":    issued.ID,
		"api_key":   raw,
	})
}
