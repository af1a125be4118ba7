package repository

import (
	"context"
	"database/sql"

	"society-shield/backend/internal/audit/domain"
	"society-shield/backend/internal/db"
)

const (
	createAuditLogSQL = `INSERT INTO audit_logs (id, tenant_id, user_id, action, entity_type, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	listAuditLogsSQL = `SELECT id, tenant_id, user_id, action, entity_type, entity_id, payload, created_at
		FROM audit_logs
		WHERE ($1::uuid IS NULL AND tenant_id IS NULL) OR tenant_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

type PostgresRepository struct{}

// NewPostgresRepository returns an audit log repository that runs on the active unit of work.
func NewPostgresRepository() *PostgresRepository {
	return &PostgresRepository{}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	q, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, createAuditLogSQL,
		a.ID, nullString(a.TenantID), nullString(a.UserID), a.Action, a.EntityType, a.EntityID, a.Payload, a.CreatedAt)
	return err
}

// ListByTenant returns audit logs for tenantID, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.AuditLog, error) {
	q, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, listAuditLogsSQL, nullString(tenantID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a                domain.AuditLog
			tenantID, userID sql.NullString
		)
		if err := rows.Scan(&a.ID, &tenantID, &userID, &a.Action, &a.EntityType, &a.EntityID, &a.Payload, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.TenantID = tenantID.String
		a.UserID = userID.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
