// Package dbtest starts a migrated Postgres container for integration tests and
// returns a pool connected as an ordinary role, so row-level security applies.
package dbtest

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"society-shield/backend/internal/db"
	"society-shield/backend/internal/db/migrate"
)

const (
	appRole     = "shield_app"
	appPassword = "shield_app"
)

// Postgres holds the two pools of an integration database.
type Postgres struct {
	// App connects as a non-owner role without BYPASSRLS.
	App *sql.DB
	// Admin connects as the container superuser; RLS does not apply to it.
	Admin *sql.DB
}

// Start runs postgres:16-alpine, applies migrations and creates the application role.
// The test is skipped when SKIP_INTEGRATION=true or no container runtime is available.
func Start(t *testing.T) *Postgres {
	t.Helper()
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	if testing.Short() {
		t.Skip("short mode, skipping PostgreSQL integration tests")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("shield_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	adminDSN, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := migrate.Run(adminDSN, migrate.Up); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	admin, err := db.Open(ctx, adminDSN, db.PoolConfig{MaxOpenConns: 2})
	if err != nil {
		t.Fatalf("open admin pool: %v", err)
	}
	t.Cleanup(func() { _ = admin.Close() })
	for _, stmt := range []string{
		`CREATE ROLE ` + appRole + ` LOGIN PASSWORD '` + appPassword + `'`,
		`GRANT USAGE ON SCHEMA public TO ` + appRole,
		`GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO ` + appRole,
	} {
		if _, err := admin.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	u, err := url.Parse(adminDSN)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	u.User = url.UserPassword(appRole, appPassword)
	app, err := db.Open(ctx, u.String(), db.PoolConfig{MaxOpenConns: 8})
	if err != nil {
		t.Fatalf("open app pool: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return &Postgres{App: app, Admin: admin}
}
