// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"society-shield/backend/internal/security"
)

// DevJWTSecret is the development signing secret. It is rejected when APP_ENV=production.
const DevJWTSecret = "dev-only-change-me-shield-jwt-secret-0123456789"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC server (health + internal RPCs) listens on.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	Env            string `mapstructure:"APP_ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	// JWTSecret is the HS256 signing secret; ignored when JWTPrivateKey is set.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTPrivateKey is a PEM private key (RSA or ECDSA) or a path to one; enables RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM public key matching JWTPrivateKey, or a path to one.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// AccessTokenTTLMinutes must be strictly smaller than RefreshTokenTTLMinutes.
	AccessTokenTTLMinutes  int `mapstructure:"ACCESS_TOKEN_TTL_MINUTES"`
	RefreshTokenTTLMinutes int `mapstructure:"REFRESH_TOKEN_TTL_MINUTES"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// Tenant admin bootstrap; runs only when enabled and the database holds no tenant or user.
	BootstrapEnabled       bool   `mapstructure:"BOOTSTRAP_ENABLED"`
	BootstrapTenantName    string `mapstructure:"BOOTSTRAP_TENANT_NAME"`
	BootstrapAdminName     string `mapstructure:"BOOTSTRAP_ADMIN_NAME"`
	BootstrapAdminEmail    string `mapstructure:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `mapstructure:"BOOTSTRAP_ADMIN_PASSWORD"`

	PasswordMinLength      int  `mapstructure:"PASSWORD_MIN_LENGTH"`
	PasswordMaxLength      int  `mapstructure:"PASSWORD_MAX_LENGTH"`
	PasswordRequireUpper   bool `mapstructure:"PASSWORD_REQUIRE_UPPER"`
	PasswordRequireLower   bool `mapstructure:"PASSWORD_REQUIRE_LOWER"`
	PasswordRequireDigit   bool `mapstructure:"PASSWORD_REQUIRE_DIGIT"`
	PasswordRequireSpecial bool `mapstructure:"PASSWORD_REQUIRE_SPECIAL"`

	// RootCredentialFile receives the generated root credential on first boot (mode 0600).
	RootCredentialFile    string `mapstructure:"ROOT_CREDENTIAL_FILE"`
	RootMaxFailedAttempts int    `mapstructure:"ROOT_MAX_FAILED_ATTEMPTS"`
	RootLockoutMinutes    int    `mapstructure:"ROOT_LOCKOUT_MINUTES"`
	// RootRefreshRotation consumes the presented root session on refresh and issues a new one.
	RootRefreshRotation bool `mapstructure:"ROOT_REFRESH_ROTATION"`

	UserMaxFailedAttempts int `mapstructure:"USER_MAX_FAILED_ATTEMPTS"`
	UserLockoutMinutes    int `mapstructure:"USER_LOCKOUT_MINUTES"`

	// LoginRateLimit is a ulule/limiter formatted rate per client IP (e.g. "10-M"); empty disables.
	LoginRateLimit string `mapstructure:"LOGIN_RATE_LIMIT"`
	// RedisURL makes the login limiter share counters across instances.
	RedisURL string `mapstructure:"REDIS_URL"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`

	// AuditKafkaBrokers is a comma-separated broker list; when set, audit events are also streamed to Kafka.
	AuditKafkaBrokers string `mapstructure:"AUDIT_KAFKA_BROKERS"`
	AuditKafkaTopic   string `mapstructure:"AUDIT_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "shield-auth")
	v.SetDefault("JWT_AUDIENCE", "shield-api")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_MINUTES", 10080) // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("BOOTSTRAP_ENABLED", false)
	v.SetDefault("BOOTSTRAP_TENANT_NAME", "")
	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "Administrator")
	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
	v.SetDefault("PASSWORD_MIN_LENGTH", 12)
	v.SetDefault("PASSWORD_MAX_LENGTH", 128)
	v.SetDefault("PASSWORD_REQUIRE_UPPER", true)
	v.SetDefault("PASSWORD_REQUIRE_LOWER", true)
	v.SetDefault("PASSWORD_REQUIRE_DIGIT", true)
	v.SetDefault("PASSWORD_REQUIRE_SPECIAL", true)
	v.SetDefault("ROOT_CREDENTIAL_FILE", "./root-bootstrap-credential.txt")
	v.SetDefault("ROOT_MAX_FAILED_ATTEMPTS", 5)
	v.SetDefault("ROOT_LOCKOUT_MINUTES", 30)
	v.SetDefault("ROOT_REFRESH_ROTATION", true)
	v.SetDefault("USER_MAX_FAILED_ATTEMPTS", 5)
	v.SetDefault("USER_LOCKOUT_MINUTES", 30)
	v.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "society-shield")
	v.SetDefault("AUDIT_KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "shield-audit")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.AccessTokenTTLMinutes <= 0 || c.RefreshTokenTTLMinutes <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.AccessTokenTTLMinutes >= c.RefreshTokenTTLMinutes {
		return errors.New("config: ACCESS_TOKEN_TTL_MINUTES must be smaller than REFRESH_TOKEN_TTL_MINUTES")
	}
	if c.PasswordMinLength <= 0 || c.PasswordMaxLength < c.PasswordMinLength {
		return errors.New("config: PASSWORD_MIN_LENGTH must be positive and not exceed PASSWORD_MAX_LENGTH")
	}
	if c.JWTPrivateKey == "" {
		if len(c.JWTSecret) < security.MinSecretLength {
			return errors.New("config: JWT_SECRET must be at least 32 bytes")
		}
		if c.IsProduction() && c.JWTSecret == DevJWTSecret {
			return errors.New("config: JWT_SECRET must be overridden when APP_ENV=production")
		}
	} else if c.JWTPublicKey == "" {
		return errors.New("config: JWT_PUBLIC_KEY must be set with JWT_PRIVATE_KEY")
	}
	return nil
}

// IsProduction reports whether APP_ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// AccessTTL returns the access token lifetime. Returns 15m if unset.
func (c *Config) AccessTTL() time.Duration {
	if c.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime. Returns 168h if unset.
func (c *Config) RefreshTTL() time.Duration {
	if c.RefreshTokenTTLMinutes <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(c.RefreshTokenTTLMinutes) * time.Minute
}

// RootLockout returns the root lockout window.
func (c *Config) RootLockout() time.Duration {
	return time.Duration(c.RootLockoutMinutes) * time.Minute
}

// UserLockout returns the tenant-user lockout window.
func (c *Config) UserLockout() time.Duration {
	return time.Duration(c.UserLockoutMinutes) * time.Minute
}

// PasswordPolicy builds the credential policy from the PASSWORD_* keys.
func (c *Config) PasswordPolicy() security.PasswordPolicy {
	return security.PasswordPolicy{
		MinLength:      c.PasswordMinLength,
		MaxLength:      c.PasswordMaxLength,
		RequireUpper:   c.PasswordRequireUpper,
		RequireLower:   c.PasswordRequireLower,
		RequireDigit:   c.PasswordRequireDigit,
		RequireSpecial: c.PasswordRequireSpecial,
	}
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty result disables the audit stream.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil || c.AuditKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AuditKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
