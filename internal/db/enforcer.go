package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"society-shield/backend/internal/observability/logger"
)

// activateSQL binds the row predicate parameters for the current transaction only.
// Both settings are transaction-local, so commit or rollback deactivates them and the
// pooled connection returns to the default state where tenant rows are invisible.
const activateSQL = `SELECT set_config('app.tenant_id', $1, true), set_config('app.tenant_scope', $2, true)`

// Recorder receives isolation metrics. telemetry.Metrics implements it.
type Recorder interface {
	RecordUnit(scope string)
	RecordIsolationFailure(stage string)
}

type nopRecorder struct{}

func (nopRecorder) RecordUnit(string)             {}
func (nopRecorder) RecordIsolationFailure(string) {}

// Enforcer is the Postgres UnitOfWork. Every unit is a transaction whose row-level
// security parameters are set before fn runs.
type Enforcer struct {
	db       *sql.DB
	log      *zap.Logger
	recorder Recorder
}

// NewEnforcer returns an Enforcer over db. rec may be nil.
func NewEnforcer(db *sql.DB, rec Recorder) *Enforcer {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Enforcer{db: db, log: logger.Named("isolation"), recorder: rec}
}

// WithinTenant implements UnitOfWork.
func (e *Enforcer) WithinTenant(ctx context.Context, fn func(ctx context.Context) error) error {
	scope, err := tenantScope(ctx)
	if err != nil {
		e.recorder.RecordIsolationFailure("tenant_missing")
		return err
	}
	return e.run(ctx, scope, fn)
}

// WithinPlatform implements UnitOfWork.
func (e *Enforcer) WithinPlatform(ctx context.Context, fn func(ctx context.Context) error) error {
	scope, err := platformScope(ctx)
	if err != nil {
		e.recorder.RecordIsolationFailure("platform_with_tenant")
		return err
	}
	return e.run(ctx, scope, fn)
}

func (e *Enforcer) run(ctx context.Context, scope Scope, fn func(ctx context.Context) error) (err error) {
	if nested, joinErr := joinActive(ctx, scope); nested {
		if joinErr != nil {
			e.recorder.RecordIsolationFailure("nested_mismatch")
			return joinErr
		}
		return fn(ctx)
	}
	if !scope.Platform {
		if _, perr := uuid.Parse(scope.TenantID); perr != nil {
			e.recorder.RecordIsolationFailure("activate")
			return fmt.Errorf("%w: malformed tenant id", ErrEnforcerActivation)
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		e.recorder.RecordIsolationFailure("begin")
		return fmt.Errorf("%w: begin: %v", ErrEnforcerActivation, err)
	}
	if _, err := tx.ExecContext(ctx, activateSQL, scope.TenantID, scope.Label()); err != nil {
		e.recorder.RecordIsolationFailure("activate")
		e.log.Error("activate row predicate", zap.String("scope", scope.Label()), logger.Err(err))
		return multierr.Append(fmt.Errorf("%w: %v", ErrEnforcerActivation, err), rollback(tx))
	}
	e.recorder.RecordUnit(scope.Label())

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(withUnit(ctx, &unit{q: tx, scope: scope})); err != nil {
		return multierr.Append(err, rollback(tx))
	}
	if err := tx.Commit(); err != nil {
		e.recorder.RecordIsolationFailure("commit")
		return fmt.Errorf("%w: commit: %v", ErrEnforcerActivation, err)
	}
	return nil
}

func rollback(tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: rollback: %v", ErrEnforcerActivation, err)
	}
	return nil
}
