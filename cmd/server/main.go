// server runs the society-shield HTTP API and the gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"

	amenityhandler "society-shield/backend/internal/amenity/handler"
	amenityrepo "society-shield/backend/internal/amenity/repository"
	amenityservice "society-shield/backend/internal/amenity/service"
	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/audit/producer"
	auditrepo "society-shield/backend/internal/audit/repository"
	"society-shield/backend/internal/bootstrap"
	"society-shield/backend/internal/config"
	"society-shield/backend/internal/db"
	healthhandler "society-shield/backend/internal/health/handler"
	identityhandler "society-shield/backend/internal/identity/handler"
	identityservice "society-shield/backend/internal/identity/service"
	"society-shield/backend/internal/observability/logger"
	orgrepo "society-shield/backend/internal/organization/repository"
	"society-shield/backend/internal/platform/root"
	roothandler "society-shield/backend/internal/platform/root/handler"
	rootrepo "society-shield/backend/internal/platform/root/repository"
	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/ratelimit"
	"society-shield/backend/internal/security"
	"society-shield/backend/internal/server"
	sessionrepo "society-shield/backend/internal/session/repository"
	"society-shield/backend/internal/telemetry"
	oteltelemetry "society-shield/backend/internal/telemetry/otel"
	userrepo "society-shield/backend/internal/user/repository"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthWatchInterval = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", logger.Err(err))
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: cfg.ServiceName})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := oteltelemetry.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	metrics := telemetry.NewMetrics()
	uow := db.NewEnforcer(conn, metrics)

	keys, err := security.LoadSigningKeys(cfg.JWTSecret, cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("signing keys: %w", err)
	}
	tokens := security.NewTokenService(keys, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	policy, err := engine.NewOPAEvaluator(ctx)
	if err != nil {
		return err
	}

	async := telemetry.NewAsync("audit")
	publishers := []producer.Publisher{oteltelemetry.NewAuditEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaPublisher(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic); kp != nil {
		publishers = append(publishers, kp)
		log.Info("audit stream enabled", zap.String("topic", cfg.AuditKafkaTopic))
	}
	auditLogger := audit.NewLogger(uow, auditrepo.NewPostgresRepository(),
		audit.WithPublishers(publishers...),
		audit.WithAsync(async),
		audit.WithIPExtractor(audit.ClientIPFromContext),
	)

	tenants := orgrepo.NewPostgresRepository()
	users := userrepo.NewPostgresRepository()

	rootSvc := root.NewService(root.Deps{
		UnitOfWork: uow,
		Accounts:   rootrepo.NewPostgresRepository(),
		Sessions:   sessionrepo.NewPostgresRepository(),
		Tenants:    tenants,
		Users:      users,
		Hasher:     hasher,
		Tokens:     tokens,
		Policy:     policy,
		Audit:      auditLogger,
		Metrics:    metrics,
	}, root.Config{
		MaxFailedAttempts: cfg.RootMaxFailedAttempts,
		Lockout:           cfg.RootLockout(),
		RefreshRotation:   cfg.RootRefreshRotation,
		PasswordPolicy:    cfg.PasswordPolicy(),
	})

	if _, err := bootstrap.NewRootCredential(rootSvc, cfg.RootCredentialFile).Run(ctx); err != nil {
		return err
	}
	outcome, err := bootstrap.NewTenantAdmin(uow, tenants, users, hasher, cfg.PasswordPolicy(), auditLogger, bootstrap.TenantAdminSettings{
		Enabled:       cfg.BootstrapEnabled,
		TenantName:    cfg.BootstrapTenantName,
		AdminName:     cfg.BootstrapAdminName,
		AdminEmail:    cfg.BootstrapAdminEmail,
		AdminPassword: cfg.BootstrapAdminPassword,
	}).Run(ctx)
	if err != nil {
		return err
	}
	log.Info("tenant admin bootstrap", zap.String("outcome", string(outcome)))

	authSvc := identityservice.NewAuthService(uow, users, hasher, tokens, auditLogger, metrics, identityservice.Config{
		MaxFailedAttempts: cfg.UserMaxFailedAttempts,
		Lockout:           cfg.UserLockout(),
		PasswordPolicy:    cfg.PasswordPolicy(),
	})
	amenitySvc := amenityservice.NewService(uow, amenityrepo.NewPostgresRepository(), policy, auditLogger)

	redisClient, err := ratelimit.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter, err := ratelimit.NewLoginLimiter(ratelimit.Config{Rate: cfg.LoginRateLimit, Redis: redisClient})
	if err != nil {
		return err
	}

	checker := healthhandler.NewChecker(conn, policy)
	hs := health.NewServer()
	go checker.WatchGRPC(ctx, hs, healthWatchInterval)

	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.NewRouter(server.Deps{
			Tokens:       tokens,
			RootAuthz:    rootSvc,
			Metrics:      metrics,
			Health:       checker,
			Auth:         identityhandler.NewAuthHandler(authSvc),
			Root:         roothandler.NewHandler(rootSvc),
			Amenities:    amenityhandler.NewHandler(amenitySvc),
			LoginLimiter: limiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := server.NewGRPCServer(server.GRPCDeps{
		Tokens:    tokens,
		RootAuthz: rootSvc,
		Audit:     auditLogger,
		Health:    hs,
	})
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server failed", logger.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	hs.Shutdown()
	err = multierr.Combine(
		err,
		httpSrv.Shutdown(shutdownCtx),
		gracefulStop(shutdownCtx, grpcSrv.GracefulStop, grpcSrv.Stop),
		async.Wait(shutdownCtx),
		auditLogger.Close(),
		providers.Shutdown(shutdownCtx),
	)
	log.Info("server stopped")
	return err
}

// gracefulStop runs graceful and falls back to force once ctx expires.
func gracefulStop(ctx context.Context, graceful, force func()) error {
	done := make(chan struct{})
	go func() {
		graceful()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		force()
		return ctx.Err()
	}
}
