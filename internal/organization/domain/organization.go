package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNameTaken is returned when a tenant with the same name (case-insensitive) exists.
	ErrNameTaken = errors.New("society name already exists")
	// ErrInvalidTenant wraps every Validate failure.
	ErrInvalidTenant = errors.New("invalid society")
)

// Tenant is a society registered on the platform. The registry itself is not
// tenant-owned; rows of tenant-owned tables reference it.
type Tenant struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	Deleted   bool
}

// Validate validates the tenant for persistence. Returns an error describing the first validation failure.
func (t *Tenant) Validate() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTenant)
	}
	if len(t.Name) > 200 {
		return fmt.Errorf("%w: name must be at most 200 characters", ErrInvalidTenant)
	}
	return nil
}
