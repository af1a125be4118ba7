package telemetry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"society-shield/backend/internal/observability/logger"
)

// emitTimeout is the max time allowed for a single async side effect.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long shutdown waits for in-flight async side effects.
// Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Async runs fire-and-forget side effects (stream publishes, exports) off the request
// path. Each call gets a fresh context with emitTimeout so request cancellation does
// not abort it; failures are logged, never returned.
type Async struct {
	wg  sync.WaitGroup
	log *zap.Logger
}

// NewAsync returns an Async that logs failures under the given component name.
func NewAsync(name string) *Async {
	return &Async{log: logger.Named(name)}
}

// Go runs fn in a goroutine. a may be nil, in which case Go is a no-op.
func (a *Async) Go(op string, fn func(ctx context.Context) error) {
	if a == nil || fn == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.log.Warn("async side effect failed", logger.Op(op), logger.Err(err))
		}
	}()
}

// Wait blocks until in-flight calls finish or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	if a == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
