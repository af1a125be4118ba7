// Package principal holds the authenticated caller for one request.
package principal

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned when a route requires a principal and none is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the principal is present but of the wrong kind or role.
	ErrForbidden = errors.New("access denied")
)

// Kind distinguishes tenant users from the platform root account.
type Kind string

const (
	KindUser Kind = "USER"
	KindRoot Kind = "ROOT"
)

// RoleRoot is the only role carried by root principals.
const RoleRoot = "ROOT"

// Principal is the caller derived from a verified access token. It is built once per
// request and never persisted.
type Principal struct {
	UserID       string
	TenantID     string // empty only for root principals
	Email        string // login id for root principals
	Role         string
	Kind         Kind
	TokenVersion int64
}

// IsRoot reports whether p is a root principal carrying the root role.
func (p *Principal) IsRoot() bool {
	return p != nil && p.Kind == KindRoot && p.Role == RoleRoot
}

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal and true if one is set; otherwise nil, false.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// RequireUser returns the tenant-user principal from ctx. Root principals and
// principals without a tenant are rejected with ErrForbidden.
func RequireUser(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if p.Kind != KindUser || p.TenantID == "" {
		return nil, ErrForbidden
	}
	return p, nil
}

// RequireRoot returns the root principal from ctx, or ErrUnauthenticated/ErrForbidden.
// Callers must still check the token version against the live account.
func RequireRoot(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !p.IsRoot() {
		return nil, ErrForbidden
	}
	return p, nil
}
