package apikey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/animavault/cerberus/internal/repository"
	"github.com/google/uuid"
)

// Service issues and resolves API keys.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new API key service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Issue mints a key for a tenant, optionally narrowed to one project, and
// returns the key together with the raw token. The token is not recoverable
// afterwards.
func (s *Service) Issue(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, description string) (*Key, string, error) {
	raw, hash, err := Generate()
	if err != nil {
		return nil, "", err
	}

	key := &Key{
		ID:          uuid.New(),
		TenantID:    tenantID,
		ProjectID:   projectID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, hash, key); err != nil {
		return nil, "", fmt.Errorf("storing api key: %w", err)
	}

	scope := "tenant"
	if projectID != nil {
		scope = "project"
	}
	s.logger.Info("api key issued", "key_id", key.ID, "tenant_id", tenantID, "scope", scope)
	return key, raw, nil
}

// Resolve maps a presented bearer token to its key. Unknown or malformed
// tokens fail with ErrUnauthenticated; no detail distinguishes the two.
func (s *Service) Resolve(ctx context.Context, token string) (*Key, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	hash := Hash(token)
	key, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolving api key: %w", err)
	}

	if err := s.repo.TouchLastUsed(ctx, hash); err != nil {
		s.logger.Warn("failed to record key usage", "key_id", key.ID, "error", err)
	}
	return key, nil
}
