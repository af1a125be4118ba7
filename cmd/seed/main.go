// seed runs the first-boot bootstrap steps against the configured database without
// starting the server. Both commands are idempotent.
//
//	go run ./cmd/seed root          # generate the root credential file
//	go run ./cmd/seed tenant-admin  # create the first society from BOOTSTRAP_* settings
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"society-shield/backend/internal/audit"
	auditrepo "society-shield/backend/internal/audit/repository"
	"society-shield/backend/internal/bootstrap"
	"society-shield/backend/internal/config"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/observability/logger"
	orgrepo "society-shield/backend/internal/organization/repository"
	"society-shield/backend/internal/platform/root"
	rootrepo "society-shield/backend/internal/platform/root/repository"
	"society-shield/backend/internal/security"
	sessionrepo "society-shield/backend/internal/session/repository"
	userrepo "society-shield/backend/internal/user/repository"
)

// env is what both commands need: configuration and an open, isolation-enforced database.
type env struct {
	cfg    *config.Config
	conn   interface{ Close() error }
	uow    db.UnitOfWork
	hasher *security.Hasher
	audit  audit.AuditLogger
}

func open(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: cfg.ServiceName})
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	uow := db.NewEnforcer(conn, nil)
	return &env{
		cfg:    cfg,
		conn:   conn,
		uow:    uow,
		hasher: security.NewHasher(cfg.BcryptCost),
		audit:  audit.NewLogger(uow, auditrepo.NewPostgresRepository()),
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Bootstrap the root account and the first society",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(rootCmd(ctx), tenantAdminCmd(ctx))

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func rootCmd(ctx context.Context) *cobra.Command {
	var credentialFile string
	c := &cobra.Command{
		Use:   "root",
		Short: "Create the root account and write its one-time credential file",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(ctx)
			if err != nil {
				return err
			}
			defer e.conn.Close()

			if credentialFile == "" {
				credentialFile = e.cfg.RootCredentialFile
			}
			keys, err := security.LoadSigningKeys(e.cfg.JWTSecret, e.cfg.JWTPrivateKey, e.cfg.JWTPublicKey)
			if err != nil {
				return err
			}
			svc := root.NewService(root.Deps{
				UnitOfWork: e.uow,
				Accounts:   rootrepo.NewPostgresRepository(),
				Sessions:   sessionrepo.NewPostgresRepository(),
				Tenants:    orgrepo.NewPostgresRepository(),
				Users:      userrepo.NewPostgresRepository(),
				Hasher:     e.hasher,
				Tokens:     security.NewTokenService(keys, e.cfg.JWTIssuer, e.cfg.JWTAudience, e.cfg.AccessTTL(), e.cfg.RefreshTTL()),
				Audit:      e.audit,
			}, root.Config{
				MaxFailedAttempts: e.cfg.RootMaxFailedAttempts,
				Lockout:           e.cfg.RootLockout(),
				RefreshRotation:   e.cfg.RootRefreshRotation,
				PasswordPolicy:    e.cfg.PasswordPolicy(),
			})
			outcome, err := bootstrap.NewRootCredential(svc, credentialFile).Run(cmd.Context())
			if err != nil {
				return err
			}
			if outcome == bootstrap.OutcomeCreated {
				fmt.Printf("root account created; credential written to %s\n", credentialFile)
			} else {
				fmt.Println("root account already exists; nothing to do")
			}
			return nil
		},
	}
	c.Flags().StringVar(&credentialFile, "credential-file", "", "Where to write the generated credential (default ROOT_CREDENTIAL_FILE)")
	return c
}

func tenantAdminCmd(ctx context.Context) *cobra.Command {
	var timeout time.Duration
	c := &cobra.Command{
		Use:   "tenant-admin",
		Short: "Create the first society and its ADMIN user from the BOOTSTRAP_* settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			e, err := open(runCtx)
			if err != nil {
				return err
			}
			defer e.conn.Close()

			settings := bootstrap.TenantAdminSettings{
				Enabled:       true,
				TenantName:    e.cfg.BootstrapTenantName,
				AdminName:     e.cfg.BootstrapAdminName,
				AdminEmail:    e.cfg.BootstrapAdminEmail,
				AdminPassword: e.cfg.BootstrapAdminPassword,
			}
			outcome, err := bootstrap.NewTenantAdmin(e.uow, orgrepo.NewPostgresRepository(), userrepo.NewPostgresRepository(),
				e.hasher, e.cfg.PasswordPolicy(), e.audit, settings).Run(runCtx)
			if err != nil {
				return err
			}
			fmt.Printf("tenant admin bootstrap: %s\n", outcome)
			if outcome == bootstrap.OutcomeIncomplete {
				return fmt.Errorf("set BOOTSTRAP_TENANT_NAME, BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD")
			}
			return nil
		},
	}
	c.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall deadline")
	return c
}
