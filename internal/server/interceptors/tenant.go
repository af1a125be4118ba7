package interceptors

import (
	"context"

	"google.golang.org/grpc"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/tenant"
)

// TenantUnary binds the principal's tenant for the duration of one call and clears it
// for everyone else. It runs after AuthUnary and never rejects.
func TenantUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = audit.WithClientIP(tenant.Clear(ctx), ClientIP(ctx))
		if p, ok := principal.FromContext(ctx); ok && p.Kind == principal.KindUser && p.TenantID != "" {
			ctx = tenant.WithTenantID(ctx, p.TenantID)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.TenantID(p.TenantID), logger.UserID(p.UserID)))
		}
		return handler(ctx, req)
	}
}
