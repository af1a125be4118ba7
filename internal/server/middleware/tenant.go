package middleware

import (
	"net/http"

	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/tenant"
)

// PropagateTenant binds the authenticated principal's tenant to the request context for
// the rest of the pipeline. A request without a tenant principal runs with the tenant
// explicitly cleared, so nothing inherited from the base context can leak in. It never
// rejects. The binding lives only in the request's context and ends with it.
func PropagateTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tenant.Clear(r.Context())
		if p, ok := principal.FromContext(ctx); ok && p.Kind == principal.KindUser && p.TenantID != "" {
			ctx = tenant.WithTenantID(ctx, p.TenantID)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.TenantID(p.TenantID), logger.UserID(p.UserID)))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
