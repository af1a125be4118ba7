package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the amenity does not exist or is not visible to the caller's tenant.
	ErrNotFound = errors.New("amenity not found")
	// ErrInvalidAmenity wraps every Validate failure.
	ErrInvalidAmenity = errors.New("invalid amenity")
)

// Amenity is a shared facility of a society, such as a clubhouse or a pool.
type Amenity struct {
	ID             string
	TenantID       string
	Name           string
	Description    string
	Capacity       int
	BookingAllowed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	Deleted        bool
}

// Validate validates the amenity for persistence.
func (a *Amenity) Validate() error {
	if a.TenantID == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidAmenity)
	}
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAmenity)
	}
	if len(a.Name) > 200 {
		return fmt.Errorf("%w: name must be at most 200 characters", ErrInvalidAmenity)
	}
	if a.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidAmenity)
	}
	return nil
}
