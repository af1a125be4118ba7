// Package bootstrap holds the startup runners that seed a fresh deployment: the
// platform root credential and, optionally, a first society with its administrator.
package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/observability/logger"
	orgdomain "society-shield/backend/internal/organization/domain"
	orgrepo "society-shield/backend/internal/organization/repository"
	"society-shield/backend/internal/security"
	"society-shield/backend/internal/tenant"
	userdomain "society-shield/backend/internal/user/domain"
	userrepo "society-shield/backend/internal/user/repository"
)

const defaultAdminName = "Society Administrator"

// TenantAdminSettings mirrors the BOOTSTRAP_* configuration keys.
type TenantAdminSettings struct {
	Enabled       bool
	TenantName    string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// missing returns the names of required settings that are empty.
func (s TenantAdminSettings) missing() []string {
	var out []string
	if strings.TrimSpace(s.TenantName) == "" {
		out = append(out, "BOOTSTRAP_TENANT_NAME")
	}
	if strings.TrimSpace(s.AdminEmail) == "" {
		out = append(out, "BOOTSTRAP_ADMIN_EMAIL")
	}
	if s.AdminPassword == "" {
		out = append(out, "BOOTSTRAP_ADMIN_PASSWORD")
	}
	return out
}

// Outcome reports what a bootstrap runner did.
type Outcome string

const (
	OutcomeCreated    Outcome = "created"
	OutcomeDisabled   Outcome = "disabled"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeDataExists Outcome = "data_exists"
)

// TenantAdmin creates the first society and its ADMIN user on an empty database.
type TenantAdmin struct {
	uow      db.UnitOfWork
	tenants  orgrepo.Repository
	users    userrepo.Repository
	hasher   *security.Hasher
	policy   security.PasswordPolicy
	audit    audit.AuditLogger
	settings TenantAdminSettings
	log      *zap.Logger
}

// NewTenantAdmin returns a TenantAdmin runner. A nil auditLogger disables auditing.
func NewTenantAdmin(
	uow db.UnitOfWork,
	tenants orgrepo.Repository,
	users userrepo.Repository,
	hasher *security.Hasher,
	policy security.PasswordPolicy,
	auditLogger audit.AuditLogger,
	settings TenantAdminSettings,
) *TenantAdmin {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &TenantAdmin{
		uow:      uow,
		tenants:  tenants,
		users:    users,
		hasher:   hasher,
		policy:   policy,
		audit:    auditLogger,
		settings: settings,
		log:      logger.Named("bootstrap"),
	}
}

// Run creates the configured society and administrator when bootstrap is enabled and
// the database holds no tenant and no user. It is safe to call on every start: once
// data exists the settings are not inspected at all.
func (b *TenantAdmin) Run(ctx context.Context) (Outcome, error) {
	if !b.settings.Enabled {
		return OutcomeDisabled, nil
	}
	empty, err := b.empty(db.Detach(ctx))
	if err != nil {
		return "", err
	}
	if !empty {
		b.log.Debug("tenant bootstrap skipped; data already present")
		return OutcomeDataExists, nil
	}
	if missing := b.settings.missing(); len(missing) > 0 {
		b.log.Warn("tenant bootstrap enabled but settings are incomplete; skipping",
			zap.Strings("missing", missing))
		return OutcomeIncomplete, nil
	}
	if err := b.policy.Check(b.settings.AdminPassword, "Bootstrap admin password"); err != nil {
		return "", err
	}
	hash, err := b.hasher.Hash(b.settings.AdminPassword)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	society := &orgdomain.Tenant{
		ID:        uuid.New().String(),
		Name:      b.settings.TenantName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := society.Validate(); err != nil {
		return "", err
	}
	name := strings.TrimSpace(b.settings.AdminName)
	if name == "" {
		name = defaultAdminName
	}
	admin := &userdomain.User{
		ID:           uuid.New().String(),
		TenantID:     society.ID,
		Name:         name,
		Email:        b.settings.AdminEmail,
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := admin.Validate(); err != nil {
		return "", err
	}

	outcome := OutcomeCreated
	err = b.uow.WithinPlatform(db.Detach(ctx), func(ctx context.Context) error {
		// Another replica may have bootstrapped since the first check.
		empty, err := b.empty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			outcome = OutcomeDataExists
			return nil
		}
		if err := b.tenants.Create(ctx, society); err != nil {
			return err
		}
		return b.users.Create(tenant.WithTenantID(ctx, society.ID), admin)
	})
	if err != nil {
		return "", err
	}
	if outcome == OutcomeDataExists {
		b.log.Debug("tenant bootstrap skipped; data already present")
		return outcome, nil
	}
	b.log.Info("bootstrapped society and administrator",
		logger.TenantID(society.ID), logger.UserID(admin.ID))
	b.audit.LogEvent(ctx, society.ID, admin.ID, audit.ActionTenantBootstrapped, audit.EntityTenant, society.ID,
		map[string]any{"tenantName": society.Name, "adminEmail": admin.Email})
	return outcome, nil
}

// empty reports whether no tenant and no user exist.
func (b *TenantAdmin) empty(ctx context.Context) (bool, error) {
	var tenantCount, userCount int
	err := b.uow.WithinPlatform(ctx, func(ctx context.Context) error {
		var err error
		if tenantCount, err = b.tenants.Count(ctx); err != nil {
			return err
		}
		userCount, err = b.users.Count(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	return tenantCount == 0 && userCount == 0, nil
}
