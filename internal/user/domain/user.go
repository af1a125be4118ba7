package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrEmailTaken is returned when another user already uses the email address.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidUser wraps every Validate failure.
	ErrInvalidUser = errors.New("invalid user")
)

// Role is a tenant user's role within its society.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleCommittee Role = "COMMITTEE"
	RoleOwner     Role = "OWNER"
	RoleSecurity  Role = "SECURITY"
	RoleTenant    Role = "TENANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCommittee, RoleOwner, RoleSecurity, RoleTenant:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// User is a tenant-owned account. TenantID is set at creation and never changes.
type User struct {
	ID                  string
	TenantID            string
	Name                string
	Email               string
	Phone               string
	PasswordHash        string
	Role                Role
	Status              UserStatus
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
	Deleted             bool
}

// NormalizeEmail lower-cases and trims an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.TenantID == "" {
		return fmt.Errorf("%w: tenant is required", ErrInvalidUser)
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	u.Email = NormalizeEmail(u.Email)
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrInvalidUser)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role is invalid", ErrInvalidUser)
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u != nil && !u.Deleted && u.Status == UserStatusActive
}

// IsLocked reports whether a lockout is in effect at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// RegisterFailure counts one failed login. Reaching maxAttempts locks the user until
// now+lockout and restarts the counter. It reports whether a lockout started.
func (u *User) RegisterFailure(now time.Time, maxAttempts int, lockout time.Duration) bool {
	u.FailedLoginAttempts++
	if maxAttempts > 0 && u.FailedLoginAttempts >= maxAttempts {
		until := now.Add(lockout)
		u.LockedUntil = &until
		u.FailedLoginAttempts = 0
		return true
	}
	return false
}

// ResetFailures clears the lockout state after a successful login.
func (u *User) ResetFailures() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
}
