package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/session/domain"
)

const (
	createSessionSQL = `INSERT INTO platform_root_sessions
		(id, root_account_id, token_hash, token_version, expires_at, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)`
	getSessionByHashSQL = `SELECT id, root_account_id, token_hash, token_version, expires_at, consumed_at, created_at
		FROM platform_root_sessions WHERE token_hash = $1 FOR UPDATE`
	consumeSessionSQL = `UPDATE platform_root_sessions SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL`
	consumeAllSessionsSQL = `UPDATE platform_root_sessions SET consumed_at = $2
		WHERE root_account_id = $1 AND consumed_at IS NULL`
)

type PostgresRepository struct{}

// NewPostgresRepository returns a root session repository that runs on the active unit of work.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.RootSession) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, createSessionSQL, s.ID, s.RootAccountID, s.TokenHash, s.TokenVersion, s.ExpiresAt, s.CreatedAt)
	return db.MapError(err)
}

// GetByTokenHash returns the session for the token hash, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RootSession, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var (
		s        domain.RootSession
		consumed sql.NullTime
	)
	err = q.QueryRowContext(ctx, getSessionByHashSQL, tokenHash).Scan(
		&s.ID, &s.RootAccountID, &s.TokenHash, &s.TokenVersion, &s.ExpiresAt, &consumed, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if consumed.Valid {
		t := consumed.Time
		s.ConsumedAt = &t
	}
	return &s, nil
}

// Consume marks the session consumed at at. Returns false if it was already consumed.
func (r *PostgresRepository) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return false, err
	}
	res, err := q.ExecContext(ctx, consumeSessionSQL, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ConsumeAllForAccount marks every open session of the account consumed.
func (r *PostgresRepository) ConsumeAllForAccount(ctx context.Context, rootAccountID string, at time.Time) (int64, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, consumeAllSessionsSQL, rootAccountID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
