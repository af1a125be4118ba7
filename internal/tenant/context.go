// Package tenant carries the current tenant id for one request or unit of work.
//
// The value lives on the request's context.Context, so concurrent requests never
// observe each other's tenant. "Clearing" is expressed by deriving a context that
// masks any tenant set further up the chain.
package tenant

import (
	"context"
	"errors"
	"strings"
)

// ErrTenantContextMissing is returned when a tenant-scoped operation runs without a tenant in context.
var ErrTenantContextMissing = errors.New("tenant context is missing")

type contextKey struct{ name string }

var tenantIDKey = contextKey{"tenant_id"}

// WithTenantID returns a context carrying id as the current tenant.
// An empty or blank id behaves like Clear.
func WithTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantIDKey, strings.TrimSpace(id))
}

// TenantID returns the current tenant id and true if one is set; otherwise "", false.
func TenantID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tenantIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// RequiredTenantID returns the current tenant id or ErrTenantContextMissing.
func RequiredTenantID(ctx context.Context) (string, error) {
	id, ok := TenantID(ctx)
	if !ok {
		return "", ErrTenantContextMissing
	}
	return id, nil
}

// Clear returns a context in which TenantID reports no tenant, regardless of what ctx carries.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, tenantIDKey, "")
}
