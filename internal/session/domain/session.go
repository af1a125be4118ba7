package domain

import "time"

// RootSession binds the hash of one root refresh token to the account's token version
// at issuance.
type RootSession struct {
	ID            string
	RootAccountID string
	TokenHash     string // SHA-256 hex of the refresh token; the raw token is never stored
	TokenVersion  int64
	ExpiresAt     time.Time
	ConsumedAt    *time.Time // nil while unused
	CreatedAt     time.Time
}

// Usable reports whether the session can back a refresh at now for an account whose
// live token version is liveVersion.
func (s *RootSession) Usable(now time.Time, liveVersion int64) bool {
	return s != nil && s.ConsumedAt == nil && s.ExpiresAt.After(now) && s.TokenVersion == liveVersion
}
