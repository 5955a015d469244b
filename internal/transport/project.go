package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// loadProject authorizes and resolves the tenant/project named in the
// request path. On any failure — unparseable ids, missing tenant, missing
// project, or a key whose scope doesn't cover the project — it writes the
// same masked 404 and returns nil, so callers can't distinguish the cases.
func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) *secret.Project {
	key, _ := KeyFromContext(r.Context())
	rawTenantID := chi.URLParam(r, "tenantID")
	rawProjectID := chi.URLParam(r, "projectID")

	tenantID, terr := uuid.Parse(rawTenantID)
	projectID, perr := uuid.Parse(rawProjectID)
	if terr != nil || perr != nil {
		writeProjectNotFound(w, rawTenantID, rawProjectID)
		return nil
	}

	tenant, err := s.secrets.GetTenant(r.Context(), tenantID)
	if err != nil && !errors.Is(err, secret.ErrTenantNotFound) {
		s.logger.Error("failed to get tenant", "tenant_id", tenantID, "error", err)
		writeInternalError(w)
		return nil
	}

	var project *secret.Project
	if tenant != nil {
		project = tenant.FindProject(projectID)
	}
	if tenant == nil || project == nil || !key.HasProjectAccess(tenantID, projectID) {
		writeProjectNotFound(w, rawTenantID, rawProjectID)
		return nil
	}
	return project
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project := s.loadProject(w, r)
	if project == nil {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleCreateProject checks only tenant-level access; denial is a plain 403
// because no child-resource identity is probed here.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	key, _ := KeyFromContext(r.Context())
	rawTenantID := chi.URLParam(r, "tenantID")

	tenantID, err := uuid.Parse(rawTenantID)
	if err != nil || !key.HasTenantAccess(tenantID) {
		writeMessage(w, http.StatusForbidden, "Access denied to this tenant")
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	projectID, err := s.secrets.CreateProject(r.Context(), tenantID, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, secret.ErrInvalidInput):
			writeMessage(w, http.StatusBadRequest, "project name is required")
		case errors.Is(err, secret.ErrTenantNotFound):
			writeTenantNotFound(w, rawTenantID)
		default:
			s.logger.Error("failed to create project", "tenant_id", tenantID, "error", err)
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          projectID,
		"tenant_id":   tenantID,
		"name":        req.Name,
		"description": req.Description,
	})
}
