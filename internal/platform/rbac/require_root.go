package rbac

import (
	"context"
	"fmt"

	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/principal"
)

// RootAccountLookup returns the live state of the root account with the given id.
// A missing account is reported as AccountState{Exists: false}, not as an error.
type RootAccountLookup interface {
	RootAccountState(ctx context.Context, accountID string) (engine.AccountState, error)
}

// RequireRootAccount ensures the caller is the root principal, the account exists and is
// active, and the token version in the principal matches the live one.
// Returns principal.ErrUnauthenticated or principal.ErrForbidden on failure.
func RequireRootAccount(ctx context.Context, eval engine.Evaluator, lookup RootAccountLookup) (*principal.Principal, error) {
	p, err := principal.RequireRoot(ctx)
	if err != nil {
		return nil, err
	}
	state, err := lookup.RootAccountState(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve root account: %w", err)
	}
	d, err := eval.Evaluate(ctx, p, state)
	if err != nil {
		return nil, fmt.Errorf("evaluate root access: %w", err)
	}
	if !d.AllowRoot {
		return nil, principal.ErrForbidden
	}
	return p, nil
}
