package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/principal"
)

// AuditUnary returns a unary server interceptor that records an audit event after each
// authenticated RPC. skipMethods is the set of full method names to not audit (e.g. the
// health service). Logging is best-effort and never fails the RPC.
func AuditUnary(auditLogger audit.AuditLogger, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if auditLogger == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		p, ok := principal.FromContext(ctx)
		if !ok {
			return resp, err
		}
		ae := audit.ParseFullMethod(info.FullMethod)
		auditLogger.LogEvent(ctx, p.TenantID, p.UserID, ae.Action, ae.EntityType, "", map[string]any{
			"method": info.FullMethod,
			"code":   status.Code(err).String(),
		})
		return resp, err
	}
}
