// Package mcp exposes the key-scoped secret fetch path to machine agents via
// the Model Context Protocol. Tools never return more than the key's scope
// allows, and every resolution failure collapses into the same "secret not
// found" error so a probing client learns nothing about the hierarchy.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `Cerberus secret store. Use get_secret to fetch a
secret value by definition name (e.g. DATABASE_URL). The environment defaults
to DEVELOPMENT; pass STAGING or PRODUCTION explicitly for other stages. Your
API key determines which tenant and projects are visible.`

// SecretStore is the subset of the store facade the agent surface needs.
type SecretStore interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*secret.Tenant, error)
	ResolveSecret(ctx context.Context, tenantID uuid.UUID, projectID *uuid.UUID, definition string, env secret.EnvironmentType) (*secret.Anima, error)
}

// Config contains server configuration.
type Config struct {
	Secrets  SecretStore
	Resolver KeyResolver
	Logger   *slog.Logger
}

// NewServer creates the MCP server with auth middleware and all tools.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "cerberus",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))

	h := &handler{secrets: cfg.Secrets}
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_secret",
		Description: "Fetch a secret value by definition name, scoped by your API key",
	}, h.getSecret)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_secrets",
		Description: "List secret definitions (without values) visible to your API key",
	}, h.listSecrets)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects visible to your API key",
	}, h.listProjects)

	return server
}

type handler struct {
	secrets SecretStore
}

var errSecretNotFound = errors.New("secret not found")

type getSecretParams struct {
	Definition  string `json:"definition"`
	Environment string `json:"environment,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
}

type secretResult struct {
	Definition  string `json:"definition"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Environment string `json:"environment"`
}

func (h *handler) getSecret(ctx context.Context, _ *sdkmcp.CallToolRequest, params getSecretParams) (*sdkmcp.CallToolResult, secretResult, error) {
	key := keyFromContext(ctx)
	if key == nil {
		return nil, secretResult{}, errSecretNotFound
	}

	env := secret.DefaultEnvironment
	if params.Environment != "" {
		parsed, err := secret.ParseEnvironment(params.Environment)
		if err != nil {
			return nil, secretResult{}, errSecretNotFound
		}
		env = parsed
	}

	projectID := key.ProjectID
	if projectID == nil && params.ProjectID != "" {
		id, err := uuid.Parse(params.ProjectID)
		if err != nil {
			return nil, secretResult{}, errSecretNotFound
		}
		projectID = &id
	}

	anima, err := h.secrets.ResolveSecret(ctx, key.TenantID, projectID, params.Definition, env)
	if err != nil {
		if errors.Is(err, secret.ErrAnimaNotFound) {
			return nil, secretResult{}, errSecretNotFound
		}
		return nil, secretResult{}, fmt.Errorf("resolving secret: %w", err)
	}

	return nil, secretResult{
		Definition:  anima.Definition,
		Value:       anima.Value,
		Description: anima.Description,
		Environment: string(anima.Environment),
	}, nil
}

type listSecretsParams struct {
	ProjectID   string `json:"project_id,omitempty"`
	Environment string `json:"environment,omitempty"`
}

type secretRef struct {
	Definition  string `json:"definition"`
	Description string `json:"description,omitempty"`
	Environment string `json:"environment"`
	ProjectID   string `json:"project_id"`
}

type listSecretsResult struct {
	Secrets []secretRef `json:"secrets"`
}

func (h *handler) listSecrets(ctx context.Context, _ *sdkmcp.CallToolRequest, params listSecretsParams) (*sdkmcp.CallToolResult, listSecretsResult, error) {
	key := keyFromContext(ctx)
	if key == nil {
		return nil, listSecretsResult{}, errSecretNotFound
	}

	var env *secret.EnvironmentType
	if params.Environment != "" {
		parsed, err := secret.ParseEnvironment(params.Environment)
		if err != nil {
			return nil, listSecretsResult{}, errSecretNotFound
		}
		env = &parsed
	}

	projects, err := h.visibleProjects(ctx, key.TenantID, key.ProjectID, params.ProjectID)
	if err != nil {
		return nil, listSecretsResult{}, err
	}

	refs := make([]secretRef, 0)
	for _, proj := range projects {
		for _, a := range proj.Animas {
			if env != nil && a.Environment != *env {
				continue
			}
			refs = append(refs, secretRef{
				Definition:  a.Definition,
				Description: a.Description,
				Environment: string(a.Environment),
				ProjectID:   proj.ID.String(),
			})
		}
	}
	return nil, listSecretsResult{Secrets: refs}, nil
}

type listProjectsParams struct{}

type projectRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type listProjectsResult struct {
	Projects []projectRef `json:"projects"`
}

func (h *handler) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listProjectsParams) (*sdkmcp.CallToolResult, listProjectsResult, error) {
	key := keyFromContext(ctx)
	if key == nil {
		return nil, listProjectsResult{}, errSecretNotFound
	}

	projects, err := h.visibleProjects(ctx, key.TenantID, key.ProjectID, "")
	if err != nil {
		return nil, listProjectsResult{}, err
	}

	refs := make([]projectRef, 0, len(projects))
	for _, proj := range projects {
		refs = append(refs, projectRef{
			ID:          proj.ID.String(),
			Name:        proj.Name,
			Description: proj.Description,
		})
	}
	return nil, listProjectsResult{Projects: refs}, nil
}

// visibleProjects returns the projects within the key's scope: the bound
// project for a project-scoped key, otherwise all of the tenant's projects,
// optionally narrowed to one requested id.
func (h *handler) visibleProjects(ctx context.Context, tenantID uuid.UUID, boundProject *uuid.UUID, requested string) ([]secret.Project, error) {
	tenant, err := h.secrets.GetTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, secret.ErrTenantNotFound) {
			return nil, errSecretNotFound
		}
		return nil, fmt.Errorf("loading tenant: %w", err)
	}

	want := boundProject
	if want == nil && requested != "" {
		id, err := uuid.Parse(requested)
		if err != nil {
			return nil, errSecretNotFound
		}
		want = &id
	}

	if want == nil {
		return tenant.Projects, nil
	}
	proj := tenant.FindProject(*want)
	if proj == nil {
		return nil, errSecretNotFound
	}
	return []secret.Project{*proj}, nil
}
