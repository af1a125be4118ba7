// Package root implements the platform root account: bootstrap, login, refresh,
// password change and society onboarding. It runs outside any tenant scope.
package root

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/observability/logger"
	orgdomain "society-shield/backend/internal/organization/domain"
	orgrepo "society-shield/backend/internal/organization/repository"
	"society-shield/backend/internal/platform/rbac"
	"society-shield/backend/internal/platform/root/domain"
	rootrepo "society-shield/backend/internal/platform/root/repository"
	"society-shield/backend/internal/policy/engine"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/security"
	sessiondomain "society-shield/backend/internal/session/domain"
	sessionrepo "society-shield/backend/internal/session/repository"
	"society-shield/backend/internal/tenant"
	userdomain "society-shield/backend/internal/user/domain"
	userrepo "society-shield/backend/internal/user/repository"
)

var (
	// ErrInvalidCredentials is the single login failure: unknown login id, wrong
	// password, inactive or locked account all look the same to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a root token or session is missing, stale or revoked.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPasswordMismatch is returned when the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("new password and confirm password do not match")
	// ErrPasswordReused is returned when the new password equals the current one.
	ErrPasswordReused = errors.New("new password must be different from current password")
	// ErrContactVerification is returned when email or mobile ownership is not confirmed.
	ErrContactVerification = errors.New("email or mobile verification failed")
	// ErrPasswordChangeRequired blocks onboarding until the bootstrap credential is replaced.
	ErrPasswordChangeRequired = errors.New("root password change is required before onboarding societies")
)

// AuthRecorder counts authentication outcomes.
type AuthRecorder interface {
	RecordAuth(principalKind, outcome string)
}

// Config holds the root account policies.
type Config struct {
	MaxFailedAttempts int
	Lockout           time.Duration
	// RefreshRotation consumes the presented session on refresh and issues a new
	// refresh token. When false the refresh token is returned unchanged.
	RefreshRotation bool
	PasswordPolicy  security.PasswordPolicy
}

// AuthResult is the outcome of Login and Refresh.
type AuthResult struct {
	AccessToken            string
	RefreshToken           string
	AccessExpiresAt        time.Time
	ExpiresIn              int64 // seconds
	PasswordChangeRequired bool
}

// ChangePasswordRequest carries the new credential and the contacts to verify.
type ChangePasswordRequest struct {
	NewPassword        string
	ConfirmNewPassword string
	Email              string
	Mobile             string
}

// OnboardRequest describes a new society and its first administrator.
type OnboardRequest struct {
	SocietyName    string
	SocietyAddress string
	AdminName      string
	AdminEmail     string
	AdminPhone     string
	AdminPassword  string
}

// OnboardResult identifies the created society and administrator.
type OnboardResult struct {
	TenantID    string
	AdminUserID string
	AdminEmail  string
}

// Service implements the root session manager.
type Service struct {
	uow      db.UnitOfWork
	accounts rootrepo.Repository
	sessions sessionrepo.Repository
	tenants  orgrepo.Repository
	users    userrepo.Repository
	hasher   *security.Hasher
	tokens   *security.TokenService
	policy   engine.Evaluator
	verifier ContactVerifier
	audit    audit.AuditLogger
	metrics  AuthRecorder
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	UnitOfWork db.UnitOfWork
	Accounts   rootrepo.Repository
	Sessions   sessionrepo.Repository
	Tenants    orgrepo.Repository
	Users      userrepo.Repository
	Hasher     *security.Hasher
	Tokens     *security.TokenService
	Policy     engine.Evaluator
	Verifier   ContactVerifier // defaults to RecordedContactVerifier
	Audit      audit.AuditLogger
	Metrics    AuthRecorder
}

// NewService returns a root Service.
func NewService(d Deps, cfg Config) *Service {
	s := &Service{
		uow:      d.UnitOfWork,
		accounts: d.Accounts,
		sessions: d.Sessions,
		tenants:  d.Tenants,
		users:    d.Users,
		hasher:   d.Hasher,
		tokens:   d.Tokens,
		policy:   d.Policy,
		verifier: d.Verifier,
		audit:    d.Audit,
		metrics:  d.Metrics,
		cfg:      cfg,
		log:      logger.Named("root"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if s.verifier == nil {
		s.verifier = RecordedContactVerifier{}
	}
	if s.policy == nil {
		s.policy = engine.StaticEvaluator{}
	}
	if s.audit == nil {
		s.audit = audit.NopLogger{}
	}
	return s
}

// Bootstrap makes sure the root account exists with a credential. When it had to
// generate one, the plaintext is returned with created=true; the caller persists it
// for the operator. An account that already has a credential is left untouched.
func (s *Service) Bootstrap(ctx context.Context) (credential string, created bool, err error) {
	var accountID string
	err = s.uow.WithinPlatform(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetByLoginID(ctx, domain.LoginID)
		if err != nil {
			return err
		}
		if acc != nil && acc.HasCredential() {
			return nil
		}
		credential, err = security.GenerateRootCredential()
		if err != nil {
			return fmt.Errorf("generate root credential: %w", err)
		}
		hash, err := s.hasher.Hash(credential)
		if err != nil {
			return fmt.Errorf("hash root credential: %w", err)
		}
		now := s.now()
		isNew := acc == nil
		if isNew {
			acc = &domain.RootAccount{
				ID:        uuid.New().String(),
				LoginID:   domain.LoginID,
				CreatedAt: now,
			}
		}
		acc.PasswordHash = hash
		acc.PasswordChangeRequired = true
		acc.EmailVerified = true
		acc.MobileVerified = true
		acc.Active = true
		acc.LastLoginAt = nil
		acc.UpdatedAt = now
		acc.ResetFailures()
		if isNew {
			err = s.accounts.Create(ctx, acc)
		} else {
			err = s.accounts.Update(ctx, acc)
		}
		if err != nil {
			return err
		}
		accountID = acc.ID
		created = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if created {
		s.audit.LogEvent(ctx, "", accountID, audit.ActionRootPasswordGenerated, audit.EntityRootAccount, accountID, nil)
		s.log.Warn("root credential generated", logger.UserID(accountID))
	}
	return credential, created, nil
}

type loginOutcome int

const (
	loginRejected loginOutcome = iota
	loginFailed
	loginBlocked
	loginSucceeded
)

// Login verifies the root credential and issues a token pair plus a session bound to
// the refresh token. Every failure is ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, loginID, password string) (*AuthResult, error) {
	if !strings.EqualFold(strings.TrimSpace(loginID), domain.LoginID) || password == "" {
		s.recordAuth("failure")
		return nil, ErrInvalidCredentials
	}
	var (
		outcome loginOutcome
		acc     *domain.RootAccount
		result  *AuthResult
		payload map[string]any
	)
	err := s.uow.WithinPlatform(tenant.Clear(ctx), func(ctx context.Context) error {
		var err error
		acc, err = s.accounts.GetByLoginID(ctx, domain.LoginID)
		if err != nil {
			return err
		}
		if acc == nil || !acc.Active || !acc.HasCredential() {
			outcome = loginRejected
			return nil
		}
		now := s.now()
		if acc.IsLocked(now) {
			outcome = loginBlocked
			payload = map[string]any{"reason": "lockout", "lockedUntil": acc.LockedUntil.Format(time.RFC3339)}
			return nil
		}
		if !s.hasher.Matches(password, acc.PasswordHash) {
			outcome = loginFailed
			attempts := acc.FailedLoginAttempts + 1
			payload = map[string]any{"failedAttempts": attempts}
			if acc.RegisterFailure(now, s.cfg.MaxFailedAttempts, s.cfg.Lockout) {
				payload["lockoutMinutes"] = int(s.cfg.Lockout / time.Minute)
				payload["lockedUntil"] = acc.LockedUntil.Format(time.RFC3339)
			}
			acc.UpdatedAt = now
			return s.accounts.Update(ctx, acc)
		}
		acc.ResetFailures()
		acc.LastLoginAt = &now
		acc.UpdatedAt = now
		if err := s.accounts.Update(ctx, acc); err != nil {
			return err
		}
		result, err = s.issue(ctx, acc)
		if err != nil {
			return err
		}
		outcome = loginSucceeded
		return nil
	})
	if err != nil {
		s.recordAuth("error")
		return nil, err
	}
	switch outcome {
	case loginSucceeded:
		s.recordAuth("success")
		s.audit.LogEvent(ctx, "", acc.ID, audit.ActionRootLogin, audit.EntityRootAccount, acc.ID,
			map[string]any{"passwordChangeRequired": acc.PasswordChangeRequired})
		return result, nil
	case loginBlocked:
		s.recordAuth("locked")
		s.audit.LogEvent(ctx, "", acc.ID, audit.ActionRootLoginBlocked, audit.EntityRootAccount, acc.ID, payload)
	case loginFailed:
		s.recordAuth("failure")
		s.audit.LogEvent(ctx, "", acc.ID, audit.ActionRootLoginFailed, audit.EntityRootAccount, acc.ID, payload)
	default:
		s.recordAuth("failure")
	}
	return nil, ErrInvalidCredentials
}

// Refresh exchanges a root refresh token for new tokens. The session row and the
// account are read in one unit so a concurrent password change either commits first
// and revokes the session, or waits for this refresh to finish.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	raw := security.NormalizeToken(refreshToken)
	claims, err := s.tokens.ParseRefresh(raw)
	if err != nil || !claims.IsRoot() {
		s.recordAuth("failure")
		return nil, ErrUnauthorized
	}
	var (
		result    *AuthResult
		accountID string
	)
	err = s.uow.WithinPlatform(tenant.Clear(ctx), func(ctx context.Context) error {
		sess, err := s.sessions.GetByTokenHash(ctx, security.HashToken(raw))
		if err != nil {
			return err
		}
		acc, err := s.accounts.GetByID(ctx, claims.UserID)
		if err != nil {
			return err
		}
		now := s.now()
		if acc == nil || !acc.Active || acc.TokenVersion != claims.TokenVersion ||
			sess == nil || sess.RootAccountID != acc.ID || !sess.Usable(now, acc.TokenVersion) {
			return ErrUnauthorized
		}
		accountID = acc.ID
		if !s.cfg.RefreshRotation {
			access, accessExp, err := s.tokens.GenerateRootAccessToken(acc.ID, acc.LoginID, acc.TokenVersion)
			if err != nil {
				return err
			}
			result = s.result(access, raw, accessExp, acc.PasswordChangeRequired)
			return nil
		}
		consumed, err := s.sessions.Consume(ctx, sess.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrUnauthorized
		}
		result, err = s.issue(ctx, acc)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.recordAuth("failure")
		} else {
			s.recordAuth("error")
		}
		return nil, err
	}
	s.recordAuth("success")
	s.audit.LogEvent(ctx, "", accountID, audit.ActionRootTokenRefreshed, audit.EntityRootAccount, accountID,
		map[string]any{"rotated": s.cfg.RefreshRotation})
	return result, nil
}

// ChangePassword replaces the root password. The hash update, the token version bump
// and the consumption of every open session commit in one unit of work.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	var (
		accountID string
		revoked   int64
	)
	err := s.uow.WithinPlatform(ctx, func(ctx context.Context) error {
		acc, err := s.authorize(ctx)
		if err != nil {
			return err
		}
		if req.NewPassword != req.ConfirmNewPassword {
			return ErrPasswordMismatch
		}
		if acc.HasCredential() && s.hasher.Matches(req.NewPassword, acc.PasswordHash) {
			return ErrPasswordReused
		}
		if err := s.cfg.PasswordPolicy.Check(req.NewPassword, "New password"); err != nil {
			return err
		}
		if !s.verifier.VerifyEmail(ctx, acc, req.Email) || !s.verifier.VerifyMobile(ctx, acc, req.Mobile) {
			return ErrContactVerification
		}
		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return fmt.Errorf("hash root password: %w", err)
		}
		now := s.now()
		acc.Email = normalizeEmail(req.Email)
		acc.Mobile = normalizeMobile(req.Mobile)
		acc.EmailVerified = true
		acc.MobileVerified = true
		acc.PasswordHash = hash
		acc.PasswordChangeRequired = false
		acc.TokenVersion++
		acc.PasswordChangedAt = &now
		acc.UpdatedAt = now
		acc.ResetFailures()
		if err := s.accounts.Update(ctx, acc); err != nil {
			return err
		}
		revoked, err = s.sessions.ConsumeAllForAccount(ctx, acc.ID, now)
		if err != nil {
			return err
		}
		accountID = acc.ID
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("root password changed", logger.UserID(accountID), zap.Int64("revoked_sessions", revoked))
	s.audit.LogEvent(ctx, "", accountID, audit.ActionRootPasswordChanged, audit.EntityRootAccount, accountID,
		map[string]any{"emailVerified": true, "mobileVerified": true, "revokedSessions": revoked})
	return nil
}

// OnboardSociety creates a society and its ADMIN user in one unit of work.
func (s *Service) OnboardSociety(ctx context.Context, req OnboardRequest) (*OnboardResult, error) {
	var acc *domain.RootAccount
	err := s.uow.WithinPlatform(ctx, func(ctx context.Context) error {
		var err error
		acc, err = s.authorize(ctx)
		if err != nil {
			return err
		}
		if acc.PasswordChangeRequired {
			return ErrPasswordChangeRequired
		}
		return s.cfg.PasswordPolicy.Check(req.AdminPassword, "Admin password")
	})
	if err != nil {
		return nil, err
	}

	adminEmail := userdomain.NormalizeEmail(req.AdminEmail)
	s.audit.LogEvent(ctx, "", acc.ID, audit.ActionRootOnboardingStarted, audit.EntityRootAccount, acc.ID,
		map[string]any{"societyName": strings.TrimSpace(req.SocietyName), "adminEmail": adminEmail})

	hash, err := s.hasher.Hash(req.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	now := s.now()
	society := &orgdomain.Tenant{
		ID:        uuid.New().String(),
		Name:      req.SocietyName,
		Address:   strings.TrimSpace(req.SocietyAddress),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := society.Validate(); err != nil {
		return nil, err
	}
	admin := &userdomain.User{
		ID:           uuid.New().String(),
		TenantID:     society.ID,
		Name:         strings.TrimSpace(req.AdminName),
		Email:        adminEmail,
		Phone:        strings.TrimSpace(req.AdminPhone),
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := admin.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithinPlatform(ctx, func(ctx context.Context) error {
		taken, err := s.tenants.ExistsByName(ctx, society.Name)
		if err != nil {
			return err
		}
		if taken {
			return orgdomain.ErrNameTaken
		}
		if err := s.tenants.Create(ctx, society); err != nil {
			return err
		}
		// The admin row belongs to the new society; bind it for this write only.
		return s.users.Create(tenant.WithTenantID(ctx, society.ID), admin)
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogEvent(ctx, "", acc.ID, audit.ActionRootSocietyCreated, audit.EntityTenant, society.ID,
		map[string]any{"societyName": society.Name})
	s.audit.LogEvent(ctx, society.ID, acc.ID, audit.ActionRootAdminCreated, audit.EntityUser, admin.ID,
		map[string]any{"adminEmail": admin.Email})
	s.audit.LogEvent(ctx, society.ID, acc.ID, audit.ActionRootOnboardingCompleted, audit.EntityTenant, society.ID,
		map[string]any{"adminUserId": admin.ID})
	return &OnboardResult{TenantID: society.ID, AdminUserID: admin.ID, AdminEmail: admin.Email}, nil
}

// RootAccountState implements rbac.RootAccountLookup.
func (s *Service) RootAccountState(ctx context.Context, accountID string) (engine.AccountState, error) {
	var state engine.AccountState
	err := s.uow.WithinPlatform(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.GetByID(ctx, accountID)
		if err != nil || acc == nil {
			return err
		}
		state = engine.AccountState{Exists: true, Active: acc.Active, TokenVersion: acc.TokenVersion}
		return nil
	})
	return state, err
}

// Authorize runs the root access gate for the principal in ctx. Any gate failure,
// including a stale token version, is ErrUnauthorized.
func (s *Service) Authorize(ctx context.Context) (*principal.Principal, error) {
	p, err := rbac.RequireRootAccount(ctx, s.policy, s)
	if err != nil {
		if errors.Is(err, principal.ErrUnauthenticated) || errors.Is(err, principal.ErrForbidden) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return p, nil
}

// authorize runs the gate and loads the account; ctx must carry an active unit.
func (s *Service) authorize(ctx context.Context) (*domain.RootAccount, error) {
	p, err := s.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrUnauthorized
	}
	return acc, nil
}

// issue creates a token pair and the session row for its refresh token.
func (s *Service) issue(ctx context.Context, acc *domain.RootAccount) (*AuthResult, error) {
	access, accessExp, err := s.tokens.GenerateRootAccessToken(acc.ID, acc.LoginID, acc.TokenVersion)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.GenerateRootRefreshToken(acc.ID, acc.LoginID, acc.TokenVersion)
	if err != nil {
		return nil, err
	}
	err = s.sessions.Create(ctx, &sessiondomain.RootSession{
		ID:            uuid.New().String(),
		RootAccountID: acc.ID,
		TokenHash:     security.HashToken(refresh),
		TokenVersion:  acc.TokenVersion,
		ExpiresAt:     refreshExp,
		CreatedAt:     s.now(),
	})
	if err != nil {
		return nil, err
	}
	return s.result(access, refresh, accessExp, acc.PasswordChangeRequired), nil
}

func (s *Service) result(access, refresh string, accessExp time.Time, changeRequired bool) *AuthResult {
	return &AuthResult{
		AccessToken:            access,
		RefreshToken:           refresh,
		AccessExpiresAt:        accessExp,
		ExpiresIn:              int64(s.tokens.AccessTTL() / time.Second),
		PasswordChangeRequired: changeRequired,
	}
}

func (s *Service) recordAuth(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAuth(security.PrincipalRoot, outcome)
	}
}
