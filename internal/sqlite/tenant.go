package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/animavault/cerberus/internal/domain/secret"
	"github.com/animavault/cerberus/internal/repository"
	"github.com/google/uuid"
)

// TenantRepository implements secret.Repository for SQLite.
//
// Reads load a tenant's whole subtree in one left-joined query and hand the
// flattened rows to the aggregator; writes are single statements scoped to
// the operation's connection.
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantTreeColumns = `
	t.id, t.name,
	p.id, p.name, p.description,
	a.definition, a.value, a.description, a.environment
`

// GetTenant retrieves a tenant with its full project/anima subtree.
func (r *TenantRepository) GetTenant(ctx context.Context, id uuid.UUID) (*secret.Tenant, error) {
	query := `
		SELECT ` + tenantTreeColumns + `
		FROM tenants t
		LEFT JOIN projects p ON p.tenant_id = t.id
		LEFT JOIN animas a ON a.project_id = p.id
		WHERE t.id = ?
		ORDER BY p.created_at ASC, a.definition ASC
	`

	rows, err := r.queryTree(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	tenant, err := secret.BuildTenant(rows)
	if err != nil {
		if errors.Is(err, secret.ErrTenantNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return tenant, nil
}

// ListTenants retrieves every tenant subtree, ordered by tenant name.
func (r *TenantRepository) ListTenants(ctx context.Context) ([]secret.Tenant, error) {
	query := `
		SELECT ` + tenantTreeColumns + `
		FROM tenants t
		LEFT JOIN projects p ON p.tenant_id = t.id
		LEFT JOIN animas a ON a.project_id = p.id
		ORDER BY t.name ASC, p.created_at ASC, a.definition ASC
	`

	rows, err := r.queryTree(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return secret.BuildTenants(rows)
}

// CountTenants returns the number of tenants.
func (r *TenantRepository) CountTenants(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return count, nil
}

// CreateTenant creates a tenant and returns its generated id.
func (r *TenantRepository) CreateTenant(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	query := `INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, id, name, time.Now().UTC()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return id, nil
}

// CreateProject creates a project under a tenant and returns its generated id.
func (r *TenantRepository) CreateProject(ctx context.Context, tenantID uuid.UUID, name, description string) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO projects (id, tenant_id, name, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, id, tenantID, name, description, time.Now().UTC()); err != nil {
		if isForeignKeyViolation(err) {
			return uuid.Nil, repository.ErrForeignKeyViolation
		}
		return uuid.Nil, fmt.Errorf("failed to create project: %w", err)
	}
	return id, nil
}

// CreateAnima stores a secret in a project and returns its generated id.
func (r *TenantRepository) CreateAnima(ctx context.Context, projectID uuid.UUID, anima secret.Anima) (uuid.UUID, error) {
	id := uuid.New()
	query := `
		INSERT INTO animas (id, project_id, definition, value, description, environment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		projectID,
		anima.Definition,
		anima.Value,
		anima.Description,
		string(anima.Environment),
		time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return uuid.Nil, repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return uuid.Nil, repository.ErrConflict
		}
		return uuid.Nil, fmt.Errorf("failed to create anima: %w", err)
	}
	return id, nil
}

// UpdateAnima overwrites the value of the anima matching definition
// (case-insensitive) and environment within a project. A nil description
// keeps the stored one via COALESCE, so the write is a single statement.
func (r *TenantRepository) UpdateAnima(ctx context.Context, projectID uuid.UUID, definition, value string, env secret.EnvironmentType, description *string) (bool, error) {
	query := `
		UPDATE animas
		SET value = ?, description = COALESCE(?, description)
		WHERE project_id = ? AND definition = ? COLLATE NOCASE AND environment = ?
	`

	var desc sql.NullString
	if description != nil {
		desc = sql.NullString{String: *description, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, value, desc, projectID, definition, string(env))
	if err != nil {
		return false, fmt.Errorf("failed to update anima: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteAnima removes a definition from a project across all environments.
// Zero matched rows is reported as false, not an error.
func (r *TenantRepository) DeleteAnima(ctx context.Context, projectID uuid.UUID, definition string) (bool, error) {
	query := `DELETE FROM animas WHERE project_id = ? AND definition = ? COLLATE NOCASE`

	result, err := r.db.ExecContext(ctx, query, projectID, definition)
	if err != nil {
		return false, fmt.Errorf("failed to delete anima: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *TenantRepository) queryTree(ctx context.Context, query string, args ...any) ([]secret.Row, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []secret.Row
	for rows.Next() {
		var row secret.Row
		err := rows.Scan(
			&row.TenantID,
			&row.TenantName,
			&row.ProjectID,
			&row.ProjectName,
			&row.ProjectDescription,
			&row.AnimaDefinition,
			&row.AnimaValue,
			&row.AnimaDescription,
			&row.AnimaEnvironment,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenant rows: %w", err)
	}
	return result, nil
}
