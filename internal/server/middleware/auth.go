// Package middleware holds the HTTP request pipeline: request logging, authentication,
// tenant propagation and the route-level access gates.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"society-shield/backend/internal/httpx"
	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/platform/root"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/security"
)

// AccessTokenParser validates access tokens; implemented by *security.TokenService.
type AccessTokenParser interface {
	ParseAccess(token string) (*security.Claims, error)
}

// RootAuthorizer runs the root access gate; implemented by *root.Service.
type RootAuthorizer interface {
	Authorize(ctx context.Context) (*principal.Principal, error)
}

// Authenticate turns a valid Bearer access token into the request principal. It never
// rejects: a missing or invalid token leaves the request anonymous and the route gates
// decide.
func Authenticate(tokens AccessTokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.StripBearerPrefix(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.ParseAccess(raw)
			if err != nil {
				logger.From(r.Context()).Debug("ignoring invalid bearer token", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(principal.WithPrincipal(r.Context(), claims.Principal())))
		})
	}
}

// RequireUser admits authenticated tenant users only.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := principal.RequireUser(r.Context()); err != nil {
			httpx.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoot admits the root principal only while its token version is current, so a
// token issued before a password change is refused on every root route.
func RequireRoot(authz RootAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := authz.Authorize(r.Context()); err != nil {
				if errors.Is(err, root.ErrUnauthorized) {
					httpx.Unauthorized(w, "unauthorized")
					return
				}
				httpx.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
