package repository

import (
	"context"
	"database/sql"
	"errors"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/organization/domain"
)

const (
	getTenantSQL = `SELECT id, name, address, created_at, updated_at, version, deleted
		FROM tenants WHERE id = $1 AND NOT deleted`
	createTenantSQL = `INSERT INTO tenants (id, name, address, created_at, updated_at, version, deleted)
		VALUES ($1, $2, $3, $4, $5, 0, false)`
	tenantNameExistsSQL = `SELECT EXISTS (SELECT 1 FROM tenants WHERE lower(name) = lower($1))`
	countTenantsSQL     = `SELECT count(*) FROM tenants`
)

type PostgresRepository struct{}

// NewPostgresRepository returns a tenant repository that runs on the active unit of work.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// GetByID returns the tenant for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var t domain.Tenant
	err = q.QueryRowContext(ctx, getTenantSQL, id).Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt, &t.Version, &t.Deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Create persists the tenant. The tenant must have ID and timestamps set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tenant) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, createTenantSQL, t.ID, t.Name, t.Address, t.CreatedAt, t.UpdatedAt)
	if err = db.MapError(err); errors.Is(err, db.ErrUniqueViolation) {
		return domain.ErrNameTaken
	}
	return err
}

// ExistsByName reports whether a tenant with name exists, ignoring case.
func (r *PostgresRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = q.QueryRowContext(ctx, tenantNameExistsSQL, name).Scan(&exists)
	return exists, err
}

// Count returns the number of registered tenants, deleted ones included.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = q.QueryRowContext(ctx, countTenantsSQL).Scan(&n)
	return n, err
}
