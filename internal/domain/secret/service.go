package secret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/animavault/cerberus/internal/repository"
	"github.com/google/uuid"
)

// Service is the store facade every request surface talks to. It orchestrates
// graph loads and mutations behind the repository and owns the key-scoped
// resolution rule. Secret values never reach the logger.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new secret service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetTenant loads a tenant's full subtree. The graph is freshly constructed
// per call; nothing is cached or shared between requests.
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	tenant, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("getting tenant: %w", err)
	}
	return tenant, nil
}

// ListTenants loads every tenant subtree, ordered by tenant name.
func (s *Service) ListTenants(ctx context.Context) ([]Tenant, error) {
	tenants, err := s.repo.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	return tenants, nil
}

// CountTenants reports how many tenants exist. Used by the bootstrap guard.
func (s *Service) CountTenants(ctx context.Context) (int, error) {
	return s.repo.CountTenants(ctx)
}

// CreateTenant creates a tenant and returns its id.
func (s *Service) CreateTenant(ctx context.Context, name string) (uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return uuid.Nil, ErrInvalidInput
	}
	id, err := s.repo.CreateTenant(ctx, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating tenant: %w", err)
	}
	s.logger.Info("tenant created", "tenant_id", id)
	return id, nil
}

// CreateProject creates a project under a tenant and returns its id.
func (s *Service) CreateProject(ctx context.Context, tenantID uuid.UUID, name, description string) (uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return uuid.Nil, ErrInvalidInput
	}
	id, err := s.repo.CreateProject(ctx, tenantID, name, description)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return uuid.Nil, ErrTenantNotFound
		}
		return uuid.Nil, fmt.Errorf("creating project: %w", err)
	}
	s.logger.Info("project created", "tenant_id", tenantID, "project_id", id)
	return id, nil
}

// CreateAnima stores a new secret in a project and returns its id. Duplicate
// (definition, environment) pairs within a project surface as
// repository.ErrConflict.
func (s *Service) CreateAnima(ctx context.Context, projectID uuid.UUID, anima Anima) (uuid.UUID, error) {
	if strings.TrimSpace(anima.Definition) == "" {
		return uuid.Nil, ErrInvalidInput
	}
	if _, err := ParseEnvironment(string(anima.Environment)); err != nil {
		return uuid.Nil, err
	}
	id, err := s.repo.CreateAnima(ctx, projectID, anima)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return uuid.Nil, ErrProjectNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("creating anima: %w", err)
	}
	s.logger.Info("anima created", "project_id", projectID, "definition", anima.Definition, "environment", anima.Environment)
	return id, nil
}

// UpdateAnima overwrites the value of the secret matching definition
// (case-insensitive) and environment within a project. A nil description
// leaves the stored description unchanged. Returns false when nothing
// matched; that is an outcome, not an error.
func (s *Service) UpdateAnima(ctx context.Context, projectID uuid.UUID, definition, value string, env EnvironmentType, description *string) (bool, error) {
	updated, err := s.repo.UpdateAnima(ctx, projectID, definition, value, env, description)
	if err != nil {
		return false, fmt.Errorf("updating anima: %w", err)
	}
	if updated {
		s.logger.Info("anima updated", "project_id", projectID, "definition", definition, "environment", env)
	}
	return updated, nil
}

// DeleteAnima removes every environment's copy of a definition within a
// project. Deleting an absent definition returns false both times, never an
// error.
func (s *Service) DeleteAnima(ctx context.Context, projectID uuid.UUID, definition string) (bool, error) {
	deleted, err := s.repo.DeleteAnima(ctx, projectID, definition)
	if err != nil {
		return false, fmt.Errorf("deleting anima: %w", err)
	}
	if deleted {
		s.logger.Info("anima deleted", "project_id", projectID, "definition", definition)
	}
	return deleted, nil
}

// ResolveSecret is the key-scoped read path used by machine clients. The
// tenant comes from the API key; projectID is the key's binding when the key
// is project-scoped, otherwise the caller's explicit choice, otherwise nil
// for the tenant's default project. Every failure stage collapses into
// ErrAnimaNotFound so a caller can't probe which part of the hierarchy
// rejected it.
func (s *Service) ResolveSecret(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, definition string, env EnvironmentType) (*Anima, error) {
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnimaNotFound
		}
		return nil, fmt.Errorf("resolving secret: %w", err)
	}

	var proj *Project
	if projectID != nil {
		proj = tenant.FindProject(*projectID)
	} else {
		proj = tenant.DefaultProject()
	}
	if proj == nil {
		return nil, ErrAnimaNotFound
	}

	anima := proj.FindAnimaIn(definition, env)
	if anima == nil {
		return nil, ErrAnimaNotFound
	}
	return anima, nil
}
