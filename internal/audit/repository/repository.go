package repository

import (
	"context"

	"society-shield/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs. Methods must run inside a unit of work.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByTenant returns the newest entries first. An empty tenantID lists platform events.
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.AuditLog, error)
}
