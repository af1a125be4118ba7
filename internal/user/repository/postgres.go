package repository

import (
	"context"
	"database/sql"
	"errors"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/user/domain"
)

// Queries carry no tenant filter: visibility comes from the row policy bound by the
// enforcer for the active unit of work.
const (
	userColumns = `id, tenant_id, name, email, phone, password_hash, role, status,
		failed_login_attempts, locked_until, last_login_at, created_at, updated_at, version, deleted`
	getUserSQL        = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND NOT deleted`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND NOT deleted`
	createUserSQL     = `INSERT INTO users (id, tenant_id, name, email, phone, password_hash, role, status,
		failed_login_attempts, locked_until, last_login_at, created_at, updated_at, version, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NULL, NULL, $9, $10, 0, false)`
	updateUserSQL = `UPDATE users SET name = $2, phone = $3, password_hash = $4, role = $5, status = $6,
		failed_login_attempts = $7, locked_until = $8, last_login_at = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND NOT deleted
		RETURNING version`
	countUsersSQL = `SELECT count(*) FROM users`
)

type PostgresRepository struct{}

// NewPostgresRepository returns a user repository that runs on the active unit of work.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// GetByID returns the user for id, or nil if not found or not visible in the current scope.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, getUserSQL, id)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, domain.NormalizeEmail(email))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Create persists the user. The user must have ID, TenantID and timestamps set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, createUserSQL,
		u.ID, u.TenantID, u.Name, u.Email, u.Phone, u.PasswordHash, string(u.Role), string(u.Status),
		u.CreatedAt, u.UpdatedAt)
	if err = db.MapError(err); errors.Is(err, db.ErrUniqueViolation) {
		return domain.ErrEmailTaken
	}
	return err
}

// Update writes the mutable fields of u and stores the new version on u.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) (bool, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var version int64
	err = q.QueryRowContext(ctx, updateUserSQL,
		u.ID, u.Name, u.Phone, u.PasswordHash, string(u.Role), string(u.Status),
		u.FailedLoginAttempts, nullTime(u.LockedUntil), nullTime(u.LastLoginAt), u.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, db.MapError(err)
	}
	u.Version = version
	return true, nil
}

// Count returns the number of users visible in the current scope.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = q.QueryRowContext(ctx, countUsersSQL).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u                   domain.User
		role, status        string
		lockedUntil, lastAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &role, &status,
		&u.FailedLoginAttempts, &lockedUntil, &lastAt, &u.CreatedAt, &u.UpdatedAt, &u.Version, &u.Deleted)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	u.LockedUntil = timePtr(lockedUntil)
	u.LastLoginAt = timePtr(lastAt)
	return &u, nil
}
