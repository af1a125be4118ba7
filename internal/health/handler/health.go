// Package handler serves liveness and readiness over HTTP and keeps the standard gRPC
// health service in step with readiness.
package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"society-shield/backend/internal/httpx"
	"society-shield/backend/internal/observability/logger"
)

const checkTimeout = 2 * time.Second

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the access policy evaluates (e.g. *engine.OPAEvaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the readiness checks. Nil dependencies are skipped.
type Checker struct {
	pinger Pinger
	policy PolicyChecker
	log    *zap.Logger
}

// NewChecker returns a Checker.
func NewChecker(pinger Pinger, policy PolicyChecker) *Checker {
	return &Checker{pinger: pinger, policy: policy, log: logger.Named("health")}
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// check returns the per-dependency result and whether everything passed.
func (c *Checker) check(ctx context.Context) (readiness, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	out := readiness{Status: "ok", Checks: map[string]string{}}
	ok := true
	if c.pinger != nil {
		out.Checks["database"] = "ok"
		if err := c.pinger.PingContext(ctx); err != nil {
			c.log.Warn("readiness: database ping failed", logger.Err(err))
			out.Checks["database"] = "unavailable"
			ok = false
		}
	}
	if c.policy != nil {
		out.Checks["policy"] = "ok"
		if err := c.policy.HealthCheck(ctx); err != nil {
			c.log.Warn("readiness: policy check failed", logger.Err(err))
			out.Checks["policy"] = "unavailable"
			ok = false
		}
	}
	if !ok {
		out.Status = "unavailable"
	}
	return out, ok
}

// Ready reports whether every readiness check passes.
func (c *Checker) Ready(ctx context.Context) bool {
	_, ok := c.check(ctx)
	return ok
}

// Liveness handles GET /healthz. It never touches dependencies.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /readyz.
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	body, ok := c.check(r.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	httpx.JSON(w, status, body)
}

// SyncGRPC sets the overall serving status of hs from one readiness run.
func (c *Checker) SyncGRPC(ctx context.Context, hs *health.Server) {
	st := healthpb.HealthCheckResponse_SERVING
	if !c.Ready(ctx) {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", st)
}

// WatchGRPC re-runs SyncGRPC every interval until ctx is done, then marks hs as
// not serving.
func (c *Checker) WatchGRPC(ctx context.Context, hs *health.Server, interval time.Duration) {
	c.SyncGRPC(ctx, hs)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			c.SyncGRPC(ctx, hs)
		}
	}
}
