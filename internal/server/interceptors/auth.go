package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/security"
)

// AccessTokenParser validates access tokens; implemented by *security.TokenService.
type AccessTokenParser interface {
	ParseAccess(token string) (*security.Claims, error)
}

// RootAuthorizer confirms a root principal's token version is still current;
// implemented by *root.Service.
type RootAuthorizer interface {
	Authorize(ctx context.Context) (*principal.Principal, error)
}

var errUnauthenticated = status.Error(codes.Unauthenticated, "missing or invalid authorization")

// AuthUnary returns a unary server interceptor that validates the Bearer access token
// from gRPC metadata and binds the principal to the context.
// publicMethods is the set of full method names that do not require a Bearer token
// (e.g. the gRPC health service). Root tokens are checked against rootAuthz on
// protected methods so a token issued before a password change is refused.
func AuthUnary(tokens AccessTokenParser, publicMethods map[string]bool, rootAuthz RootAuthorizer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, errUnauthenticated
		}

		claims, err := tokens.ParseAccess(token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, errUnauthenticated
		}

		ctx = principal.WithPrincipal(ctx, claims.Principal())
		if claims.IsRoot() && !public {
			if rootAuthz == nil {
				return nil, status.Error(codes.PermissionDenied, "access denied")
			}
			if _, err := rootAuthz.Authorize(ctx); err != nil {
				return nil, errUnauthenticated
			}
		}
		return handler(ctx, req)
	}
}
