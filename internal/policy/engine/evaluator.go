package engine

import (
	"context"
	"errors"

	"society-shield/backend/internal/principal"
)

// ErrDenied is returned by gates when the access decision is negative.
var ErrDenied = errors.New("access denied by policy")

// AccountState is the live state of the root account a principal claims to be.
type AccountState struct {
	Exists       bool
	Active       bool
	TokenVersion int64
}

// Decision is the outcome of one evaluation.
type Decision struct {
	AllowRoot        bool
	AllowTenantWrite bool
}

// Evaluator decides access for root operations and tenant-level writes.
type Evaluator interface {
	Evaluate(ctx context.Context, p *principal.Principal, account AccountState) (Decision, error)
}

// decide is the reference decision. The Rego policy must agree with it.
func decide(p *principal.Principal, account AccountState) Decision {
	if p == nil {
		return Decision{}
	}
	var d Decision
	d.AllowRoot = p.Kind == principal.KindRoot && p.Role == principal.RoleRoot &&
		account.Exists && account.Active && p.TokenVersion == account.TokenVersion
	d.AllowTenantWrite = p.Kind == principal.KindUser && p.TenantID != "" &&
		(p.Role == "ADMIN" || p.Role == "COMMITTEE")
	return d
}

// StaticEvaluator applies the built-in decision without OPA.
type StaticEvaluator struct{}

// Evaluate implements Evaluator.
func (StaticEvaluator) Evaluate(_ context.Context, p *principal.Principal, account AccountState) (Decision, error) {
	return decide(p, account), nil
}
