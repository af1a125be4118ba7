package repository

import (
	"context"

	"society-shield/backend/internal/amenity/domain"
)

// Repository defines persistence for amenities. Methods must run inside a unit of work;
// implementations never filter by tenant themselves.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Amenity, error)
	// List returns visible amenities ordered by name.
	List(ctx context.Context, limit, offset int) ([]*domain.Amenity, error)
	Create(ctx context.Context, a *domain.Amenity) error
	// Update writes mutable fields and bumps Version. Returns false when no visible row matched.
	Update(ctx context.Context, a *domain.Amenity) (bool, error)
	// SoftDelete marks the amenity deleted. Returns false when no visible row matched.
	SoftDelete(ctx context.Context, id string) (bool, error)
}
