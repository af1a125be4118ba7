package rbac

import (
	"context"
	"fmt"

	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/principal"
)

// RequireTenantWriter ensures the caller is a tenant user allowed to change shared
// tenant data (ADMIN or COMMITTEE).
func RequireTenantWriter(ctx context.Context, eval engine.Evaluator) (*principal.Principal, error) {
	p, err := principal.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	d, err := eval.Evaluate(ctx, p, engine.AccountState{})
	if err != nil {
		return nil, fmt.Errorf("evaluate tenant access: %w", err)
	}
	if !d.AllowTenantWrite {
		return nil, principal.ErrForbidden
	}
	return p, nil
}
