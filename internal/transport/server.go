package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/animavault/cerberus/internal/domain/apikey"
	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SecretStore is the store facade the REST surface consumes.
type SecretStore interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*secret.Tenant, error)
	ListTenants(ctx context.Context) ([]secret.Tenant, error)
	CountTenants(ctx context.Context) (int, error)
	CreateTenant(ctx context.Context, name string) (uuid.UUID, error)
	CreateProject(ctx context.Context, tenantID uuid.UUID, name, description string) (uuid.UUID, error)
	CreateAnima(ctx context.Context, projectID uuid.UUID, anima secret.Anima) (uuid.UUID, error)
	UpdateAnima(ctx context.Context, projectID uuid.UUID, definition, value string, env secret.EnvironmentType, description *string) (bool, error)
	DeleteAnima(ctx context.Context, projectID uuid.UUID, definition string) (bool, error)
	ResolveSecret(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, definition string, env secret.EnvironmentType) (*secret.Anima, error)
}

// KeyService issues and resolves API keys.
type KeyService interface {
	KeyResolver
	Issue(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, description string) (*apikey.Key, string, error)
}

// Server holds the REST handlers.
type Server struct {
	secrets SecretStore
	keys    KeyService
	logger  *slog.Logger
}

// NewRouter wires the REST surface. Everything except health, metrics and
// bootstrap sits behind API key authentication.
func NewRouter(secrets SecretStore, keys KeyService, logger *slog.Logger) *chi.Mux {
	s := &Server{secrets: secrets, keys: keys, logger: logger}

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/bootstrap", s.handleBootstrap)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(keys))

		r.Get("/tenants", s.handleListTenants)
		r.Get("/tenants/{tenantID}", s.handleGetTenant)
		r.Post("/tenants/{tenantID}/keys", s.handleIssueKey)

		r.Post("/tenants/{tenantID}/projects", s.handleCreateProject)
		r.Get("/tenants/{tenantID}/projects/{projectID}", s.handleGetProject)

		r.Get("/tenants/{tenantID}/projects/{projectID}/animas", s.handleListAnimas)
		r.Post("/tenants/{tenantID}/projects/{projectID}/animas", s.handleCreateAnima)
		r.Get("/tenants/{tenantID}/projects/{projectID}/animas/{definition}", s.handleGetAnima)
		r.Put("/tenants/{tenantID}/projects/{projectID}/animas/{definition}", s.handleUpdateAnima)
		r.Delete("/tenants/{tenantID}/projects/{projectID}/animas/{definition}", s.handleDeleteAnima)

		r.Get("/animas/{definition}", s.handleFetchAnima)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
