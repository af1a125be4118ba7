package db

import (
	"context"
	"sync/atomic"
)

// MemoryUnitOfWork is a UnitOfWork for tests and the in-memory repositories. It binds
// the same scope as Enforcer but has no rollback: memory repositories apply writes
// immediately.
type MemoryUnitOfWork struct {
	units    atomic.Int64
	recorder Recorder
}

// NewMemoryUnitOfWork returns a MemoryUnitOfWork. rec may be nil.
func NewMemoryUnitOfWork(rec Recorder) *MemoryUnitOfWork {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &MemoryUnitOfWork{recorder: rec}
}

// WithinTenant implements UnitOfWork.
func (m *MemoryUnitOfWork) WithinTenant(ctx context.Context, fn func(ctx context.Context) error) error {
	scope, err := tenantScope(ctx)
	if err != nil {
		m.recorder.RecordIsolationFailure("tenant_missing")
		return err
	}
	return m.run(ctx, scope, fn)
}

// WithinPlatform implements UnitOfWork.
func (m *MemoryUnitOfWork) WithinPlatform(ctx context.Context, fn func(ctx context.Context) error) error {
	scope, err := platformScope(ctx)
	if err != nil {
		m.recorder.RecordIsolationFailure("platform_with_tenant")
		return err
	}
	return m.run(ctx, scope, fn)
}

// Units returns how many outermost units have been started.
func (m *MemoryUnitOfWork) Units() int64 { return m.units.Load() }

func (m *MemoryUnitOfWork) run(ctx context.Context, scope Scope, fn func(ctx context.Context) error) error {
	if nested, err := joinActive(ctx, scope); nested {
		if err != nil {
			m.recorder.RecordIsolationFailure("nested_mismatch")
			return err
		}
		return fn(ctx)
	}
	m.units.Add(1)
	m.recorder.RecordUnit(scope.Label())
	return fn(withUnit(ctx, &unit{scope: scope}))
}
