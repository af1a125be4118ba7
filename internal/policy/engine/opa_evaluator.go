package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/principal"
)

const accessQuery = "data.shield.access"

// accessPolicy mirrors decide.
const accessPolicy = `package shield.access

default allow_root := false

default allow_tenant_write := false

allow_root if {
	input.principal.kind == "ROOT"
	input.principal.role == "ROOT"
	input.account.exists
	input.account.active
	input.principal.token_version == input.account.token_version
}

allow_tenant_write if {
	input.principal.kind == "USER"
	input.principal.tenant_id != ""
	input.principal.role in {"ADMIN", "COMMITTEE"}
}
`

// OPAEvaluator evaluates access decisions with an embedded Rego policy. Evaluation
// failures fall back to the built-in decision and are logged.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
	log   *zap.Logger
}

// NewOPAEvaluator compiles the access policy.
func NewOPAEvaluator(ctx context.Context) (*OPAEvaluator, error) {
	q, err := rego.New(
		rego.Query(accessQuery),
		rego.Module("shield_access.rego", accessPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{query: q, log: logger.Named("policy")}, nil
}

// Evaluate implements Evaluator.
func (e *OPAEvaluator) Evaluate(ctx context.Context, p *principal.Principal, account AccountState) (Decision, error) {
	if p == nil {
		return Decision{}, nil
	}
	d, err := e.eval(ctx, buildInput(p, account))
	if err != nil {
		e.log.Warn("access policy evaluation failed, using built-in decision", logger.Err(err))
		return decide(p, account), nil
	}
	return d, nil
}

// HealthCheck evaluates the policy against a fixed root input and checks the result.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	p := &principal.Principal{UserID: "health", Role: principal.RoleRoot, Kind: principal.KindRoot, TokenVersion: 1}
	d, err := e.eval(ctx, buildInput(p, AccountState{Exists: true, Active: true, TokenVersion: 1}))
	if err != nil {
		return fmt.Errorf("eval access policy: %w", err)
	}
	if !d.AllowRoot || d.AllowTenantWrite {
		return fmt.Errorf("access policy returned unexpected decision %+v", d)
	}
	return nil
}

func (e *OPAEvaluator) eval(ctx context.Context, input map[string]interface{}) (Decision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("access policy returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("access policy returned %T", rs[0].Expressions[0].Value)
	}
	var d Decision
	d.AllowRoot, _ = doc["allow_root"].(bool)
	d.AllowTenantWrite, _ = doc["allow_tenant_write"].(bool)
	return d, nil
}

func buildInput(p *principal.Principal, account AccountState) map[string]interface{} {
	return map[string]interface{}{
		"principal": map[string]interface{}{
			"kind":          string(p.Kind),
			"role":          p.Role,
			"tenant_id":     p.TenantID,
			"token_version": p.TokenVersion,
		},
		"account": map[string]interface{}{
			"exists":        account.Exists,
			"active":        account.Active,
			"token_version": account.TokenVersion,
		},
	}
}
