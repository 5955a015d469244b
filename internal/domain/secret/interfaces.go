package secret

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides persistence for the tenant → project → anima graph.
type Repository interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
	CountTenants(ctx context.Context) (int, error)
	CreateTenant(ctx context.Context, name string) (uuid.UUID, error)
	CreateProject(ctx context.Context, tenantID uuid.UUID, name, description string) (uuid.UUID, error)
	CreateAnima(ctx context.Context, projectID uuid.UUID, anima Anima) (uuid.UUID, error)
	UpdateAnima(ctx context.Context, projectID uuid.UUID, definition, value string, env EnvironmentType, description *string) (bool, error)
	DeleteAnima(ctx context.Context, projectID uuid.UUID, definition string) (bool, error)
}
