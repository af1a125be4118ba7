package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/observability/logger"
)

// HTTPObserver records request durations; implemented by *telemetry.Metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// RequestLogger attaches a request-scoped zap logger to the context, then logs and
// measures every request once it completes. The client address is recorded for audit
// entries. It must run after chi's RequestID and RealIP.
func RequestLogger(obs HTTPObserver) func(http.Handler) http.Handler {
	base := logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(logger.RequestID(chimw.GetReqID(r.Context())))
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := audit.WithClientIP(logger.ToContext(r.Context(), l), r.RemoteAddr)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			d := time.Since(start)
			if obs != nil {
				obs.ObserveHTTP(r.Method, route, status, d)
			}
			l.Info("request",
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.Status(status),
				logger.Duration(d),
				logger.ClientIP(r.RemoteAddr),
			)
		})
	}
}
