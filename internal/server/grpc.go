// Package server assembles the HTTP router and the gRPC server from the service handlers.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/server/interceptors"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// GRPCDeps holds the dependencies of the gRPC server.
type GRPCDeps struct {
	// Tokens validates Bearer access tokens from call metadata.
	Tokens interceptors.AccessTokenParser
	// RootAuthz rejects root tokens issued before the last credential change.
	RootAuthz interceptors.RootAuthorizer
	// Audit records authenticated calls. If nil, no calls are audited.
	Audit audit.AuditLogger
	// Health is the standard health service; its status is driven by the readiness checker.
	Health *health.Server
}

// NewGRPCServer returns a gRPC server with tracing and the interceptor chain installed
// and every service registered. Interceptors run in order: logging, authentication,
// tenant propagation, audit.
func NewGRPCServer(deps GRPCDeps) *grpc.Server {
	public := map[string]bool{healthCheckMethod: true}
	quiet := map[string]bool{healthCheckMethod: true}

	var auditLogger audit.AuditLogger = audit.NopLogger{}
	if deps.Audit != nil {
		auditLogger = deps.Audit
	}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(quiet),
			interceptors.AuthUnary(deps.Tokens, public, deps.RootAuthz),
			interceptors.TenantUnary(),
			interceptors.AuditUnary(auditLogger, quiet),
		),
	)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers every gRPC service with s.
//
//   - grpc.health.v1.Health → google.golang.org/grpc/health, status from internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps GRPCDeps) {
	hs := deps.Health
	if hs == nil {
		hs = health.NewServer()
	}
	healthpb.RegisterHealthServer(s, hs)
}
