package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	amenityhandler "society-shield/backend/internal/amenity/handler"
	healthhandler "society-shield/backend/internal/health/handler"
	identityhandler "society-shield/backend/internal/identity/handler"
	roothandler "society-shield/backend/internal/platform/root/handler"
	"society-shield/backend/internal/server/middleware"
	"society-shield/backend/internal/telemetry"
)

// Deps holds the HTTP handlers and the middleware dependencies.
type Deps struct {
	Tokens    middleware.AccessTokenParser
	RootAuthz middleware.RootAuthorizer
	// Metrics records request durations and serves /metrics. If nil, both are skipped.
	Metrics *telemetry.Metrics
	Health  *healthhandler.Checker

	Auth      *identityhandler.AuthHandler
	Root      *roothandler.Handler
	Amenities *amenityhandler.Handler

	// LoginLimiter guards both login endpoints. If nil, logins are not rate limited.
	LoginLimiter func(http.Handler) http.Handler
}

// NewRouter returns the HTTP API.
func NewRouter(d Deps) http.Handler {
	var obs middleware.HTTPObserver
	if d.Metrics != nil {
		obs = d.Metrics
	}
	limit := d.LoginLimiter
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestLogger(obs),
		middleware.Authenticate(d.Tokens),
		middleware.PropagateTenant,
	)

	r.Get("/healthz", d.Health.Liveness)
	r.Get("/readyz", d.Health.Readiness)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limit).Post("/login", d.Auth.Login)
			r.Post("/refresh", d.Auth.Refresh)
			r.With(middleware.RequireUser).Post("/change-password", d.Auth.ChangePassword)
		})
		r.Route("/root", func(r chi.Router) {
			r.With(limit).Post("/login", d.Root.Login)
			r.Post("/refresh", d.Root.Refresh)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoot(d.RootAuthz))
				r.Post("/change-password", d.Root.ChangePassword)
				r.Post("/societies", d.Root.OnboardSociety)
			})
		})
		r.Route("/amenities", func(r chi.Router) {
			r.Use(middleware.RequireUser)
			d.Amenities.Routes(r)
		})
	})
	return r
}
