// Package service authenticates tenant users: login by email, token refresh and
// password change.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"society-shield/backend/internal/audit"
	"society-shield/backend/internal/db"
	"society-shield/backend/internal/observability/logger"
	"society-shield/backend/internal/principal"
	"society-shield/backend/internal/security"
	"society-shield/backend/internal/tenant"
	userdomain "society-shield/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to status codes.
var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords, inactive and locked users.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned for malformed, expired, access-kind or root refresh
	// tokens, and when the user is no longer active.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrCurrentPasswordIncorrect is returned by ChangePassword when the current password is wrong.
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	// ErrPasswordMismatch is returned when the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("new password and confirm password do not match")
	// ErrPasswordReused is returned when the new password equals the current one.
	ErrPasswordReused = errors.New("new password must be different from current password")
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Update(ctx context.Context, u *userdomain.User) (bool, error)
}

// AuthRecorder counts authentication outcomes.
type AuthRecorder interface {
	RecordAuth(principalKind, outcome string)
}

// Config holds the tenant user lockout and password policies.
type Config struct {
	MaxFailedAttempts int
	Lockout           time.Duration
	PasswordPolicy    security.PasswordPolicy
}

// AuthResult holds the token pair issued by Login and Refresh.
type AuthResult struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	ExpiresIn       int64 // seconds
	UserID          string
	TenantID        string
	Role            string
}

// ChangePasswordRequest carries the current and new credential of the caller.
type ChangePasswordRequest struct {
	CurrentPassword    string
	NewPassword        string
	ConfirmNewPassword string
}

// AuthService implements login, refresh and password change for tenant users.
type AuthService struct {
	uow     db.UnitOfWork
	users   UserRepo
	hasher  *security.Hasher
	tokens  *security.TokenService
	audit   audit.AuditLogger
	metrics AuthRecorder
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. A nil auditLogger
// disables auditing; a nil metrics recorder disables counting.
func NewAuthService(
	uow db.UnitOfWork,
	users UserRepo,
	hasher *security.Hasher,
	tokens *security.TokenService,
	auditLogger audit.AuditLogger,
	metrics AuthRecorder,
	cfg Config,
) *AuthService {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &AuthService{
		uow:     uow,
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		audit:   auditLogger,
		metrics: metrics,
		cfg:     cfg,
		log:     logger.Named("identity"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type loginOutcome int

const (
	loginRejected loginOutcome = iota
	loginFailed
	loginLocked
	loginSucceeded
)

// Login authenticates a tenant user by email and password. The tenant is not known
// yet, so the lookup runs in a platform unit of work; emails are unique across tenants.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		s.recordAuth("failure")
		return nil, ErrInvalidCredentials
	}
	var (
		outcome loginOutcome
		user    *userdomain.User
		result  *AuthResult
		payload map[string]any
	)
	err := s.uow.WithinPlatform(db.Detach(ctx), func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !user.IsActive() {
			outcome = loginRejected
			return nil
		}
		now := s.now()
		if user.IsLocked(now) {
			outcome = loginLocked
			payload = map[string]any{"reason": "lockout", "lockedUntil": user.LockedUntil.Format(time.RFC3339)}
			return nil
		}
		if !s.hasher.Matches(password, user.PasswordHash) {
			outcome = loginFailed
			payload = map[string]any{"failedAttempts": user.FailedLoginAttempts + 1}
			if user.RegisterFailure(now, s.cfg.MaxFailedAttempts, s.cfg.Lockout) {
				outcome = loginLocked
				payload["lockoutMinutes"] = int(s.cfg.Lockout / time.Minute)
				payload["lockedUntil"] = user.LockedUntil.Format(time.RFC3339)
			}
			user.UpdatedAt = now
			_, err := s.users.Update(ctx, user)
			return err
		}
		user.ResetFailures()
		user.LastLoginAt = &now
		user.UpdatedAt = now
		if _, err := s.users.Update(ctx, user); err != nil {
			return err
		}
		result, err = s.issue(user)
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
		s.audit.LogEvent(ctx, user.TenantID, user.ID, audit.ActionAuthLogin, audit.EntityUser, user.ID, nil)
		return result, nil
	case loginLocked:
		s.recordAuth("locked")
		s.audit.LogEvent(ctx, user.TenantID, user.ID, audit.ActionAuthLoginLocked, audit.EntityUser, user.ID, payload)
	case loginFailed:
		s.recordAuth("failure")
		s.audit.LogEvent(ctx, user.TenantID, user.ID, audit.ActionAuthLoginFailed, audit.EntityUser, user.ID, payload)
	default:
		s.recordAuth("failure")
		s.log.Debug("login rejected", logger.Op("identity.login"))
	}
	return nil, ErrInvalidCredentials
}

// Refresh exchanges a user refresh token for a new token pair. The user is re-read in
// a unit of work scoped to the token's tenant and must still be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ParseRefresh(security.NormalizeToken(refreshToken))
	if err != nil || claims.IsRoot() || claims.TenantID == "" || claims.UserID == "" {
		s.recordAuth("failure")
		return nil, ErrInvalidRefreshToken
	}
	var result *AuthResult
	scoped := tenant.WithTenantID(db.Detach(ctx), claims.TenantID)
	err = s.uow.WithinTenant(scoped, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, claims.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive() || user.TenantID != claims.TenantID {
			return ErrInvalidRefreshToken
		}
		result, err = s.issue(user)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			s.recordAuth("failure")
		} else {
			s.recordAuth("error")
		}
		return nil, err
	}
	s.recordAuth("success")
	s.audit.LogEvent(ctx, result.TenantID, result.UserID, audit.ActionAuthRefresh, audit.EntityUser, result.UserID, nil)
	return result, nil
}

// ChangePassword replaces the caller's password. The caller must be an authenticated
// tenant user; the update runs in the caller's tenant scope.
func (s *AuthService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	p, err := principal.RequireUser(ctx)
	if err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return ErrPasswordMismatch
	}
	if err := s.cfg.PasswordPolicy.Check(req.NewPassword, "New password"); err != nil {
		return err
	}
	err = s.uow.WithinTenant(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive() {
			return principal.ErrUnauthenticated
		}
		if !s.hasher.Matches(req.CurrentPassword, user.PasswordHash) {
			return ErrCurrentPasswordIncorrect
		}
		if s.hasher.Matches(req.NewPassword, user.PasswordHash) {
			return ErrPasswordReused
		}
		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		user.ResetFailures()
		user.UpdatedAt = s.now()
		ok, err := s.users.Update(ctx, user)
		if err != nil {
			return err
		}
		if !ok {
			return principal.ErrUnauthenticated
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.LogEvent(ctx, p.TenantID, p.UserID, audit.ActionAuthPasswordChanged, audit.EntityUser, p.UserID, nil)
	return nil
}

func (s *AuthService) issue(u *userdomain.User) (*AuthResult, error) {
	role := string(u.Role)
	access, accessExp, err := s.tokens.GenerateAccessToken(u.ID, u.TenantID, u.Email, role)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.GenerateRefreshToken(u.ID, u.TenantID, u.Email, role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: accessExp,
		ExpiresIn:       int64(s.tokens.AccessTTL() / time.Second),
		UserID:          u.ID,
		TenantID:        u.TenantID,
		Role:            role,
	}, nil
}

func (s *AuthService) recordAuth(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAuth(security.PrincipalUser, outcome)
	}
}
