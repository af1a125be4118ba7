package repository

import (
	"context"

	"society-shield/backend/internal/platform/root/domain"
)

// Repository defines persistence for the platform root account. Methods must run
// inside a unit of work.
type Repository interface {
	// GetByID returns the account, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.RootAccount, error)
	// GetByLoginID returns the account and locks it for the rest of the unit, or nil if not found.
	GetByLoginID(ctx context.Context, loginID string) (*domain.RootAccount, error)
	Create(ctx context.Context, a *domain.RootAccount) error
	// Update writes every mutable field of a.
	Update(ctx context.Context, a *domain.RootAccount) error
}
