package domain

import "time"

// LoginID is the login id of the single platform root account.
const LoginID = "root"

// RootAccount is the tenant-less super-admin identity. TokenVersion is the only
// revocation mechanism: bumping it invalidates every root token and session issued before.
type RootAccount struct {
	ID                     string
	LoginID                string
	PasswordHash           string
	Email                  string
	Mobile                 string
	EmailVerified          bool
	MobileVerified         bool
	PasswordChangeRequired bool
	TokenVersion           int64
	Active                 bool
	FailedLoginAttempts    int
	LockedUntil            *time.Time
	LastLoginAt            *time.Time
	PasswordChangedAt      *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsLocked reports whether the account is inside a lockout window at now.
func (a *RootAccount) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// HasCredential reports whether a password hash has been set.
func (a *RootAccount) HasCredential() bool {
	return a.PasswordHash != ""
}

// RegisterFailure counts one failed password attempt. When the count reaches
// maxAttempts the account is locked until now+lockout and the counter restarts.
// It reports whether this failure triggered a lockout.
func (a *RootAccount) RegisterFailure(now time.Time, maxAttempts int, lockout time.Duration) bool {
	a.FailedLoginAttempts++
	if maxAttempts > 0 && a.FailedLoginAttempts >= maxAttempts {
		until := now.Add(lockout)
		a.LockedUntil = &until
		a.FailedLoginAttempts = 0
		return true
	}
	return false
}

// ResetFailures clears the lockout state.
func (a *RootAccount) ResetFailures() {
	a.FailedLoginAttempts = 0
	a.LockedUntil = nil
}
