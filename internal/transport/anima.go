package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/animavault/cerberus/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createAnimaRequest struct {
	Definition  string `json:"definition"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Environment string `json:"environment"`
}

type updateAnimaRequest struct {
	Value       string  `json:"value"`
	Environment string  `json:"environment"`
	Description *string `json:"description,omitempty"`
}

func (s *Server) handleListAnimas(w http.ResponseWriter, r *http.Request) {
	project := s.loadProject(w, r)
	if project == nil {
		return
	}

	animas := project.Animas
	if raw := r.URL.Query().Get("environment"); raw != "" {
		env, err := secret.ParseEnvironment(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "The requested environment type: %s does not exist", raw)
			return
		}
		animas = project.AnimasIn(env)
	}

	writeJSON(w, http.StatusOK, animas)
}

func (s *Server) handleGetAnima(w http.ResponseWriter, r *http.Request) {
	project := s.loadProject(w, r)
	if project == nil {
		return
	}
	definition := chi.URLParam(r, "definition")

	var anima *secret.Anima
	if raw := r.URL.Query().Get("environment"); raw != "" {
		env, err := secret.ParseEnvironment(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "The requested environment type: %s does not exist", raw)
			return
		}
		anima = project.FindAnimaIn(definition, env)
	} else {
		anima = project.FindAnima(definition)
	}

	if anima == nil {
		writeAnimaNotFound(w, definition, chi.URLParam(r, "projectID"))
		return
	}
	writeJSON(w, http.StatusOK, anima)
}

func (s *Server) handleCreateAnima(w http.ResponseWriter, r *http.Request) {
	project := s.loadProject(w, r)
	if project == nil {
		return
	}

	var req createAnimaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	env, err := secret.ParseEnvironment(req.Environment)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "The requested environment type: %s does not exist", req.Environment)
		return
	}

	animaID, err := s.secrets.CreateAnima(r.Context(), project.ID, secret.Anima{
		Definition:  req.Definition,
		Value:       req.Value,
		Description: req.Description,
		Environment: env,
	})
	if err != nil {
		switch {
		case errors.Is(err, secret.ErrInvalidInput):
			writeMessage(w, http.StatusBadRequest, "definition is required")
		case errors.Is(err, repository.ErrConflict):
			writeMessage(w, http.StatusConflict, "Anima with definition '%s' already exists in environment %s", req.Definition, env)
		default:
			s.logger.Error("failed to create anima", "project_id", project.ID, "error", err)
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          animaID,
		"definition":  req.Definition,
		"description": req.Description,
	})
}

func (s *Server) handleUpdateAnima(w http.ResponseWriter, r *http.Request) {
	project := s.loadProject(w, r)
	if project == nil {
		return
	}
	definition := chi.URLParam(r, "definition")

	var req updateAnimaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	env, err := secret.ParseEnvironment(req.Environment)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "The requested environment type: %s does not exist", req.Environment)
		return
	}

	updated, err := s.secrets.UpdateAnima(r.Context(), project.ID, definition, req.Value, env, req.Description)
	if err != nil {
		s.logger.Error("failed to update anima", "project_id", project.ID, "error", err)
		writeInternalError(w)
		return
	}
	if !updated {
		writeAnimaNotFound(w, definition, chi.URLParam(r, "projectID"))
		return
	}

	writeMessage(w, http.StatusOK, "Anima updated successfully")
}

func (s *Server) handleDeleteAnima(w http.ResponseWriter, r *http.Request) {
	project := s.loadProject(w, r)
	if project == nil {
		return
	}
	definition := chi.URLParam(r, "definition")

	deleted, err := s.secrets.DeleteAnima(r.Context(), project.ID, definition)
	if err != nil {
		s.logger.Error("failed to delete anima", "project_id", project.ID, "error", err)
		writeInternalError(w)
		return
	}
	if !deleted {
		writeAnimaNotFound(w, definition, chi.URLParam(r, "projectID"))
		return
	}

	writeMessage(w, http.StatusOK, "Anima deleted successfully")
}

// handleFetchAnima is the implicit, key-scoped fetch used by machine clients.
// The tenant comes from the key; a project-bound key always reads its own
// project. Every failure stage yields the same 401 so this path never leaks
// which part of the hierarchy rejected the request.
func (s *Server) handleFetchAnima(w http.ResponseWriter, r *http.Request) {
	key, _ := KeyFromContext(r.Context())
	definition := chi.URLParam(r, "definition")

	env := secret.DefaultEnvironment
	if raw := r.URL.Query().Get("environment"); raw != "" {
		parsed, err := secret.ParseEnvironment(raw)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		env = parsed
	}

	projectID := key.ProjectID
	if projectID == nil {
		if raw := r.URL.Query().Get("projectId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			projectID = &id
		}
	}

	anima, err := s.secrets.ResolveSecret(r.Context(), key.TenantID, projectID, definition, env)
	if err != nil {
		if !errors.Is(err, secret.ErrAnimaNotFound) {
			s.logger.Error("failed to resolve secret", "tenant_id", key.TenantID, "error", err)
			writeInternalError(w)
			return
		}
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, anima)
}
