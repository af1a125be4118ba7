package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"society-shield/backend/internal/observability/logger"
)

// LoggingUnary attaches a "grpc" logger to the call context and logs the outcome of
// every call not in skipMethods.
func LoggingUnary(skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	base := logger.Named("grpc")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(logger.ToContext(ctx, base), req)
		if skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		fields := []zap.Field{
			logger.Method(info.FullMethod),
			zap.String("code", code.String()),
			logger.Duration(time.Since(start)),
			logger.ClientIP(ClientIP(ctx)),
		}
		if err != nil {
			base.Warn("rpc failed", append(fields, logger.Err(err))...)
			return resp, err
		}
		base.Info("rpc", fields...)
		return resp, err
	}
}
