package rbac

import (
	"context"
	"errors"
	"testing"

	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/principal"
)

// mockLookup implements RootAccountLookup for tests.
type mockLookup struct {
	state engine.AccountState
	err   error
}

func (m *mockLookup) RootAccountState(ctx context.Context, accountID string) (engine.AccountState, error) {
	return m.state, m.err
}

func rootCtx(version int64) context.Context {
	return principal.WithPrincipal(context.Background(), &principal.Principal{
		UserID: "root-1", Email: "root", Role: principal.RoleRoot, Kind: principal.KindRoot, TokenVersion: version,
	})
}

func TestRequireRootAccount(t *testing.T) {
	live := engine.AccountState{Exists: true, Active: true, TokenVersion: 2}
	lookupErr := errors.New("db down")
	tests := []struct {
		name   string
		ctx    context.Context
		lookup *mockLookup
		want   error
	}{
		{"no principal", context.Background(), &mockLookup{state: live}, principal.ErrUnauthenticated},
		{"tenant user", principal.WithPrincipal(context.Background(), &principal.Principal{UserID: "u", TenantID: "t", Role: "ADMIN", Kind: principal.KindUser}), &mockLookup{state: live}, principal.ErrForbidden},
		{"stale token version", rootCtx(1), &mockLookup{state: live}, principal.ErrForbidden},
		{"inactive account", rootCtx(2), &mockLookup{state: engine.AccountState{Exists: true, TokenVersion: 2}}, principal.ErrForbidden},
		{"lookup failure", rootCtx(2), &mockLookup{err: lookupErr}, lookupErr},
		{"ok", rootCtx(2), &mockLookup{state: live}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := RequireRootAccount(tt.ctx, engine.StaticEvaluator{}, tt.lookup)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && (p == nil || p.UserID != "root-1") {
				t.Errorf("principal = %+v", p)
			}
		})
	}
}

func TestRequireTenantWriter(t *testing.T) {
	withUser := func(role string) context.Context {
		return principal.WithPrincipal(context.Background(), &principal.Principal{UserID: "u", TenantID: "t1", Role: role, Kind: principal.KindUser})
	}
	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{"no principal", context.Background(), principal.ErrUnauthenticated},
		{"root", rootCtx(0), principal.ErrForbidden},
		{"owner", withUser("OWNER"), principal.ErrForbidden},
		{"security", withUser("SECURITY"), principal.ErrForbidden},
		{"committee", withUser("COMMITTEE"), nil},
		{"admin", withUser("ADMIN"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RequireTenantWriter(tt.ctx, engine.StaticEvaluator{}); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
