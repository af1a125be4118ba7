package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"society-shield/backend/internal/audit"
	auditrepo "society-shield/backend/internal/audit/repository"
	"society-shield/backend/internal/db"
	orgrepo "society-shield/backend/internal/organization/repository"
	"society-shield/backend/internal/security"
	"society-shield/backend/internal/tenant"
	userrepo "society-shield/backend/internal/user/repository"
)

const adminPassword = "Banyan#Residency-1"

type tenantFixture struct {
	uow     *db.MemoryUnitOfWork
	tenants *orgrepo.MemoryRepository
	users   *userrepo.MemoryRepository
	audits  *auditrepo.MemoryRepository
}

func newTenantFixture() *tenantFixture {
	return &tenantFixture{
		uow:     db.NewMemoryUnitOfWork(nil),
		tenants: orgrepo.NewMemoryRepository(),
		users:   userrepo.NewMemoryRepository(),
		audits:  auditrepo.NewMemoryRepository(),
	}
}

func (f *tenantFixture) runner(s TenantAdminSettings) *TenantAdmin {
	return NewTenantAdmin(f.uow, f.tenants, f.users, security.NewHasher(4), security.DefaultPasswordPolicy(),
		audit.NewLogger(f.uow, f.audits), s)
}

func (f *tenantFixture) counts(t *testing.T) (tenants, users int) {
	t.Helper()
	err := f.uow.WithinPlatform(context.Background(), func(ctx context.Context) error {
		var err error
		if tenants, err = f.tenants.Count(ctx); err != nil {
			return err
		}
		users, err = f.users.Count(ctx)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return tenants, users
}

func fullSettings() TenantAdminSettings {
	return TenantAdminSettings{
		Enabled:       true,
		TenantName:    "Banyan Residency",
		AdminEmail:    "Admin@Banyan.example",
		AdminPassword: adminPassword,
	}
}

func TestTenantAdmin_CreatesOnce(t *testing.T) {
	f := newTenantFixture()
	r := f.runner(fullSettings())

	got, err := r.Run(context.Background())
	if err != nil || got != OutcomeCreated {
		t.Fatalf("first Run = %q, %v", got, err)
	}
	got, err = r.Run(context.Background())
	if err != nil || got != OutcomeDataExists {
		t.Fatalf("second Run = %q, %v", got, err)
	}
	if nt, nu := f.counts(t); nt != 1 || nu != 1 {
		t.Errorf("counts = %d tenants, %d users; want 1, 1", nt, nu)
	}
	if actions := f.audits.Actions(); len(actions) != 1 || actions[0] != audit.ActionTenantBootstrapped {
		t.Errorf("audit actions = %v", actions)
	}

	// The admin belongs to the new tenant and is visible only in its scope.
	var tenantID string
	_ = f.uow.WithinPlatform(context.Background(), func(ctx context.Context) error {
		u, err := f.users.GetByEmail(ctx, "admin@banyan.example")
		if err != nil || u == nil {
			t.Fatalf("admin lookup: %v, %v", u, err)
		}
		if u.Role != "ADMIN" || u.Name != defaultAdminName {
			t.Errorf("admin = %+v", u)
		}
		tenantID = u.TenantID
		return nil
	})
	err = f.uow.WithinTenant(tenant.WithTenantID(context.Background(), "someone-else"), func(ctx context.Context) error {
		if u, _ := f.users.GetByEmail(ctx, "admin@banyan.example"); u != nil {
			t.Error("admin visible from another tenant")
		}
		return nil
	})
	if err != nil || tenantID == "" {
		t.Fatalf("scoped lookup: %v (tenant %q)", err, tenantID)
	}
}

func TestTenantAdmin_Skips(t *testing.T) {
	tests := []struct {
		name     string
		settings TenantAdminSettings
		want     Outcome
	}{
		{"disabled", TenantAdminSettings{TenantName: "X", AdminEmail: "a@x.io", AdminPassword: adminPassword}, OutcomeDisabled},
		{"missing tenant name", TenantAdminSettings{Enabled: true, AdminEmail: "a@x.io", AdminPassword: adminPassword}, OutcomeIncomplete},
		{"missing email", TenantAdminSettings{Enabled: true, TenantName: "X", AdminPassword: adminPassword}, OutcomeIncomplete},
		{"missing password", TenantAdminSettings{Enabled: true, TenantName: "X", AdminEmail: "a@x.io"}, OutcomeIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTenantFixture()
			got, err := f.runner(tt.settings).Run(context.Background())
			if err != nil || got != tt.want {
				t.Fatalf("Run = %q, %v; want %q", got, err, tt.want)
			}
			if nt, nu := f.counts(t); nt != 0 || nu != 0 {
				t.Errorf("counts = %d/%d, want nothing created", nt, nu)
			}
		})
	}
}

func TestTenantAdmin_WeakPasswordFails(t *testing.T) {
	f := newTenantFixture()
	s := fullSettings()
	s.AdminPassword = "password"
	_, err := f.runner(s).Run(context.Background())
	var pv *security.PolicyViolationError
	if !errors.As(err, &pv) {
		t.Fatalf("Run err = %v, want policy violation", err)
	}
}

func TestTenantAdmin_ExistingDataIgnoresSettings(t *testing.T) {
	f := newTenantFixture()
	if got, err := f.runner(fullSettings()).Run(context.Background()); err != nil || got != OutcomeCreated {
		t.Fatalf("first Run = %q, %v", got, err)
	}
	tests := []struct {
		name   string
		mutate func(*TenantAdminSettings)
	}{
		{"weak password", func(s *TenantAdminSettings) { s.AdminPassword = "password" }},
		{"invalid email", func(s *TenantAdminSettings) { s.AdminEmail = "not-an-email" }},
		{"missing tenant name", func(s *TenantAdminSettings) { s.TenantName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fullSettings()
			tt.mutate(&s)
			got, err := f.runner(s).Run(context.Background())
			if err != nil || got != OutcomeDataExists {
				t.Fatalf("Run = %q, %v; want %q", got, err, OutcomeDataExists)
			}
		})
	}
	if nt, nu := f.counts(t); nt != 1 || nu != 1 {
		t.Errorf("counts = %d/%d, want 1/1", nt, nu)
	}
}

type fakeRoot struct {
	credential string
	created    bool
	err        error
	calls      int
}

func (f *fakeRoot) Bootstrap(context.Context) (string, bool, error) {
	f.calls++
	return f.credential, f.created, f.err
}

func TestRootCredential_WritesFileOnCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "root-credential.txt")
	r := NewRootCredential(&fakeRoot{credential: "Xy7#generated-credential", created: true}, path)
	r.now = func() time.Time { return time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC) }

	got, err := r.Run(context.Background())
	if err != nil || got != OutcomeCreated {
		t.Fatalf("Run = %q, %v", got, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %o, want 600", perm)
	}
	body, _ := os.ReadFile(path)
	for _, want := range []string{"loginId=root\n", "credential=Xy7#generated-credential\n", "generatedAt=2026-05-04T03:02:01Z\n", "note="} {
		if !strings.Contains(string(body), want) {
			t.Errorf("file missing %q:\n%s", want, body)
		}
	}
}

func TestRootCredential_ExistingAccountWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "root-credential.txt")
	got, err := NewRootCredential(&fakeRoot{}, path).Run(context.Background())
	if err != nil || got != OutcomeDataExists {
		t.Fatalf("Run = %q, %v", got, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("credential file should not exist, stat err = %v", err)
	}
}

func TestRootCredential_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewRootCredential(&fakeRoot{err: boom}, filepath.Join(t.TempDir(), "f")).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Run err = %v, want %v", err, boom)
	}
}

func TestWriteCredentialFile_TightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cred.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteCredentialFile(path, "new-credential", time.Now()); err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
	body, _ := os.ReadFile(path)
	if strings.Contains(string(body), "old") {
		t.Error("previous content not truncated")
	}
}
