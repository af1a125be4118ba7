package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"society-shield/backend/internal/principal"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, mis-signed or
	// issued for another issuer/audience.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenKind is returned when an access token is presented where a refresh
	// token is required, or the other way round.
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// TokenKind discriminates access from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Principal kinds carried in the principalKind claim.
const (
	PrincipalUser = string(principal.KindUser)
	PrincipalRoot = string(principal.KindRoot)
)

// Claims is the wire contract of every token this service issues.
type Claims struct {
	jwt.RegisteredClaims
	UserID        string    `json:"userId"`
	TenantID      string    `json:"tenantId,omitempty"`
	Role          string    `json:"role"`
	TokenKind     TokenKind `json:"tokenKind"`
	PrincipalKind string    `json:"principalKind"`
	TokenVersion  int64     `json:"tokenVersion"`
}

// Email returns the subject claim: the user's email, or the root login id.
func (c *Claims) Email() string { return c.Subject }

// IsRoot reports whether the claims were issued to the platform root account.
func (c *Claims) IsRoot() bool { return c.PrincipalKind == PrincipalRoot }

// Principal builds the per-request principal from verified claims.
func (c *Claims) Principal() *principal.Principal {
	return &principal.Principal{
		UserID:       c.UserID,
		TenantID:     c.TenantID,
		Email:        c.Subject,
		Role:         c.Role,
		Kind:         principal.Kind(c.PrincipalKind),
		TokenVersion: c.TokenVersion,
	}
}

// TokenService issues and validates signed JWTs for tenant users and the root account.
type TokenService struct {
	keys       SigningKeys
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService returns a TokenService signing with keys. issuer and audience are set
// on every token and required on parse.
func NewTokenService(keys SigningKeys, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		keys:       keys,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken issues a short-lived access token for a tenant user.
func (s *TokenService) GenerateAccessToken(userID, tenantID, email, role string) (string, time.Time, error) {
	return s.issue(KindAccess, PrincipalUser, userID, tenantID, email, role, 0)
}

// GenerateRefreshToken issues a refresh token for a tenant user.
func (s *TokenService) GenerateRefreshToken(userID, tenantID, email, role string) (string, time.Time, error) {
	return s.issue(KindRefresh, PrincipalUser, userID, tenantID, email, role, 0)
}

// GenerateRootAccessToken issues an access token for the root account at tokenVersion.
func (s *TokenService) GenerateRootAccessToken(accountID, loginID string, tokenVersion int64) (string, time.Time, error) {
	return s.issue(KindAccess, PrincipalRoot, accountID, "", loginID, PrincipalRoot, tokenVersion)
}

// GenerateRootRefreshToken issues a refresh token for the root account at tokenVersion.
// The caller must persist a session row keyed by HashToken of the result.
func (s *TokenService) GenerateRootRefreshToken(accountID, loginID string, tokenVersion int64) (string, time.Time, error) {
	return s.issue(KindRefresh, PrincipalRoot, accountID, "", loginID, PrincipalRoot, tokenVersion)
}

func (s *TokenService) issue(kind TokenKind, principalKind, userID, tenantID, subject, role string, version int64) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	ttl := s.accessTTL
	if kind == KindRefresh {
		ttl = s.refreshTTL
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:        userID,
		TenantID:      tenantID,
		Role:          role,
		TokenKind:     kind,
		PrincipalKind: principalKind,
		TokenVersion:  version,
	}
	if s.keys.method == nil {
		return "", time.Time{}, ErrInvalidKey
	}
	token, err := jwt.NewWithClaims(s.keys.method, claims).SignedString(s.keys.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IsTokenValid reports whether token has a valid signature, issuer, audience and expiry.
// It never panics or returns an error so callers have one rejection path.
func (s *TokenService) IsTokenValid(token string) bool {
	_, err := s.ParseClaims(token)
	return err == nil
}

// ParseClaims verifies token and returns its claims, or ErrInvalidToken.
func (s *TokenService) ParseClaims(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" || s.keys.method == nil {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != s.keys.method.Alg() {
			return nil, ErrInvalidToken
		}
		return s.keys.verifyKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenKind != KindAccess && claims.TokenKind != KindRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseAccess parses token and requires it to be an access token.
func (s *TokenService) ParseAccess(token string) (*Claims, error) {
	return s.parseKind(token, KindAccess)
}

// ParseRefresh parses token and requires it to be a refresh token.
func (s *TokenService) ParseRefresh(token string) (*Claims, error) {
	return s.parseKind(token, KindRefresh)
}

func (s *TokenService) parseKind(token string, kind TokenKind) (*Claims, error) {
	claims, err := s.ParseClaims(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenKind != kind {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

// StripBearerPrefix returns the token from an Authorization header value. The scheme
// is matched case-insensitively; a header without the Bearer scheme yields "".
func StripBearerPrefix(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NormalizeToken accepts either a bare token or an Authorization-style "Bearer <token>"
// value, as clients send both in refresh request bodies.
func NormalizeToken(raw string) string {
	if t := StripBearerPrefix(raw); t != "" {
		return t
	}
	return strings.TrimSpace(raw)
}
