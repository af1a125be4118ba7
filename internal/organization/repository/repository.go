package repository

import (
	"context"

	"society-shield/backend/internal/organization/domain"
)

// Repository defines persistence for tenants. Methods must run inside a unit of work.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	Create(ctx context.Context, t *domain.Tenant) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	Count(ctx context.Context) (int, error)
}
