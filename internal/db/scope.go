package db

import (
	"context"
	"database/sql"
	"errors"

	"society-shield/backend/internal/tenant"
)

var (
	// ErrEnforcerActivation is returned when the row predicate could not be activated or
	// the unit of work could not be started or committed. It is fatal to the request.
	ErrEnforcerActivation = errors.New("isolation enforcer activation failed")
	// ErrTenantMismatch is returned when a nested unit of work asks for a different scope
	// than the one already active.
	ErrTenantMismatch = errors.New("unit of work scope does not match tenant context")
	// ErrNoUnitOfWork is returned by repositories called outside a unit of work.
	ErrNoUnitOfWork = errors.New("repository called outside a unit of work")
)

// Querier is the subset of *sql.DB / *sql.Tx used by repositories.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scope is the row predicate bound to one unit of work: either a single tenant or
// the explicit platform scope used by root and provisioning paths.
type Scope struct {
	TenantID string
	Platform bool
}

// Label returns "tenant" or "platform" for metrics and logs.
func (s Scope) Label() string {
	if s.Platform {
		return "platform"
	}
	return "tenant"
}

// Allows reports whether a row owned by tenantID is visible and writable in s.
func (s Scope) Allows(tenantID string) bool {
	return s.Platform || (s.TenantID != "" && s.TenantID == tenantID)
}

// UnitOfWork starts transactional units with the row predicate active.
type UnitOfWork interface {
	// WithinTenant runs fn with the predicate bound to the context tenant. It fails
	// with tenant.ErrTenantContextMissing when the context carries no tenant.
	WithinTenant(ctx context.Context, fn func(ctx context.Context) error) error
	// WithinPlatform runs fn in the platform scope, where rows of every tenant are
	// visible. It fails with ErrTenantMismatch when the context carries a tenant.
	WithinPlatform(ctx context.Context, fn func(ctx context.Context) error) error
}

type unit struct {
	q     Querier
	scope Scope
}

type unitKey struct{}

func withUnit(ctx context.Context, u *unit) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

func unitFrom(ctx context.Context) (*unit, bool) {
	u, ok := ctx.Value(unitKey{}).(*unit)
	return u, ok && u != nil
}

// Conn returns the querier of the active unit of work, or ErrNoUnitOfWork.
func Conn(ctx context.Context) (Querier, error) {
	u, ok := unitFrom(ctx)
	if !ok || u.q == nil {
		return nil, ErrNoUnitOfWork
	}
	return u.q, nil
}

// CurrentScope returns the scope of the active unit of work, or ErrNoUnitOfWork.
func CurrentScope(ctx context.Context) (Scope, error) {
	u, ok := unitFrom(ctx)
	if !ok {
		return Scope{}, ErrNoUnitOfWork
	}
	return u.scope, nil
}

// tenantScope derives a tenant scope from the context.
func tenantScope(ctx context.Context) (Scope, error) {
	id, ok := tenant.TenantID(ctx)
	if !ok {
		return Scope{}, tenant.ErrTenantContextMissing
	}
	return Scope{TenantID: id}, nil
}

// platformScope refuses a context bound to a tenant unless a platform unit is already
// active, so a tenant request cannot widen its own visibility.
func platformScope(ctx context.Context) (Scope, error) {
	if active, ok := unitFrom(ctx); ok && active.scope.Platform {
		return active.scope, nil
	}
	if _, ok := tenant.TenantID(ctx); ok {
		return Scope{}, ErrTenantMismatch
	}
	return Scope{Platform: true}, nil
}

// joinActive decides whether a nested call may reuse the active unit.
func joinActive(ctx context.Context, want Scope) (bool, error) {
	active, ok := unitFrom(ctx)
	if !ok {
		return false, nil
	}
	if active.scope != want {
		return true, ErrTenantMismatch
	}
	return true, nil
}

// Detach returns a context with no active unit of work and no tenant, for side
// effects that must commit independently of the caller's unit (audit records).
func Detach(ctx context.Context) context.Context {
	return tenant.Clear(withUnit(ctx, nil))
}
