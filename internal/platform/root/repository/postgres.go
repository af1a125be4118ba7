package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/platform/root/domain"
)

const (
	rootColumns = `id, login_id, password_hash, email, mobile, email_verified, mobile_verified,
		password_change_required, token_version, active, failed_login_attempts, locked_until,
		last_login_at, password_changed_at, created_at, updated_at`
	getRootByIDSQL      = `SELECT ` + rootColumns + ` FROM platform_root_accounts WHERE id = $1`
	getRootByLoginIDSQL = `SELECT ` + rootColumns + ` FROM platform_root_accounts WHERE login_id = $1 FOR UPDATE`
	createRootSQL       = `INSERT INTO platform_root_accounts (` + rootColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	updateRootSQL = `UPDATE platform_root_accounts SET password_hash = $2, email = $3, mobile = $4,
		email_verified = $5, mobile_verified = $6, password_change_required = $7, token_version = $8,
		active = $9, failed_login_attempts = $10, locked_until = $11, last_login_at = $12,
		password_changed_at = $13, updated_at = $14
		WHERE id = $1`
)

// ErrNotFound is returned by Update when the account row does not exist.
var ErrNotFound = errors.New("root account not found")

type PostgresRepository struct{}

// NewPostgresRepository returns a root account repository that runs on the active unit of work.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.RootAccount, error) {
	return r.getOne(ctx, getRootByIDSQL, id)
}

func (r *PostgresRepository) GetByLoginID(ctx context.Context, loginID string) (*domain.RootAccount, error) {
	return r.getOne(ctx, getRootByLoginIDSQL, loginID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*domain.RootAccount, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var (
		a                          domain.RootAccount
		email, mobile              sql.NullString
		lockedUntil, lastAt, pwdAt sql.NullTime
	)
	err = q.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.LoginID, &a.PasswordHash, &email, &mobile,
		&a.EmailVerified, &a.MobileVerified, &a.PasswordChangeRequired, &a.TokenVersion, &a.Active,
		&a.FailedLoginAttempts, &lockedUntil, &lastAt, &pwdAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Email = email.String
	a.Mobile = mobile.String
	a.LockedUntil = timePtr(lockedUntil)
	a.LastLoginAt = timePtr(lastAt)
	a.PasswordChangedAt = timePtr(pwdAt)
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *domain.RootAccount) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, createRootSQL, a.ID, a.LoginID, a.PasswordHash,
		nullString(a.Email), nullString(a.Mobile), a.EmailVerified, a.MobileVerified,
		a.PasswordChangeRequired, a.TokenVersion, a.Active, a.FailedLoginAttempts,
		nullTime(a.LockedUntil), nullTime(a.LastLoginAt), nullTime(a.PasswordChangedAt),
		a.CreatedAt, a.UpdatedAt)
	return db.MapError(err)
}

func (r *PostgresRepository) Update(ctx context.Context, a *domain.RootAccount) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, updateRootSQL, a.ID, a.PasswordHash,
		nullString(a.Email), nullString(a.Mobile), a.EmailVerified, a.MobileVerified,
		a.PasswordChangeRequired, a.TokenVersion, a.Active, a.FailedLoginAttempts,
		nullTime(a.LockedUntil), nullTime(a.LastLoginAt), nullTime(a.PasswordChangedAt), a.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
