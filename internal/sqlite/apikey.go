package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/animavault/cerberus/internal/domain/apikey"
	"github.com/animavault/cerberus/internal/repository"
	"github.com/google/uuid"
)

// APIKeyRepository implements apikey.Repository for SQLite
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Insert stores a key under its token hash.
func (r *APIKeyRepository) Insert(ctx context.Context, hash string, key *apikey.Key) error {
	query := `
		INSERT INTO api_keys (key_hash, id, tenant_id, project_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var projectID uuid.NullUUID
	if key.ProjectID != nil {
		projectID = uuid.NullUUID{UUID: *key.ProjectID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		hash,
		key.ID,
		key.TenantID,
		projectID,
		key.Description,
		key.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// GetByHash retrieves a key by its token hash.
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*apikey.Key, error) {
	query := `
		SELECT id, tenant_id, project_id, description, created_at
		FROM api_keys
		WHERE key_hash = ?
	`

	var (
		key       apikey.Key
		projectID uuid.NullUUID
		desc      sql.NullString
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&key.ID,
		&key.TenantID,
		&projectID,
		&desc,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	if projectID.Valid {
		id := projectID.UUID
		key.ProjectID = &id
	}
	key.Description = desc.String
	key.CreatedAt = createdAt
	return &key, nil
}

// TouchLastUsed records that a key was just presented.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
