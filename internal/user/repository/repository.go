package repository

import (
	"context"

	"society-shield/backend/internal/user/domain"
)

// Repository defines persistence for tenant users. Methods must run inside a unit of
// work; visibility follows the unit's tenant scope.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Update writes mutable fields and bumps Version. Returns false when no visible row matched.
	Update(ctx context.Context, u *domain.User) (bool, error)
	Count(ctx context.Context) (int, error)
}
