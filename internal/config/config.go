package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all runtime configuration derived from environment variables.
type Config struct {
	HTTPPort               string
	LogLevel               string
	StorageBackend         string
	DataDir                string
	DatabaseURL            string
	SQLitePath             string
	RedisURL               string
	JWTSecret              string
	JWTIssuer              string
	JWTAudience            string
	TokenTTL               time.Duration
	AdminKey               string
	AdminEmail             string
	AdminPassword          string
	BcryptCost             int
	PublicRateLimitRPS     int
	AuthRateLimitRPS       int
	IdempotencyTTL         time.Duration
	ReconciliationInterval time.Duration
	SerializeUsers         bool
	BlockBannedInLedger    bool
}

// Load reads environment variables using viper and returns a typed config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	bindEnv(v, "port", "PORT", "LEDGER_PORT")
	bindEnv(v, "log_level", "LOG_LEVEL", "LEDGER_LOG_LEVEL")
	bindEnv(v, "storage_backend", "STORAGE_BACKEND", "LEDGER_STORAGE_BACKEND")
	bindEnv(v, "data_dir", "DATA_DIR", "LEDGER_DATA_DIR")
	bindEnv(v, "database_url", "DATABASE_URL", "LEDGER_DATABASE_URL")
	bindEnv(v, "sqlite_path", "SQLITE_PATH", "LEDGER_SQLITE_PATH")
	bindEnv(v, "redis_url", "REDIS_URL", "LEDGER_REDIS_URL")
	bindEnv(v, "jwt_secret", "JWT_SECRET", "LEDGER_JWT_SECRET")
	bindEnv(v, "jwt_issuer", "JWT_ISSUER", "LEDGER_JWT_ISSUER")
	bindEnv(v, "jwt_audience", "JWT_AUDIENCE", "LEDGER_JWT_AUDIENCE")
	bindEnv(v, "token_ttl", "TOKEN_TTL", "LEDGER_TOKEN_TTL")
	bindEnv(v, "admin_key", "ADMIN_KEY", "LEDGER_ADMIN_KEY")
	bindEnv(v, "admin_email", "ADMIN_EMAIL", "LEDGER_ADMIN_EMAIL")
	bindEnv(v, "admin_password", "ADMIN_PASSWORD", "LEDGER_ADMIN_PASSWORD")
	bindEnv(v, "bcrypt_cost", "BCRYPT_COST", "LEDGER_BCRYPT_COST")
	bindEnv(v, "public_rate_limit_rps", "PUBLIC_RATE_LIMIT_RPS", "LEDGER_PUBLIC_RATE_LIMIT_RPS")
	bindEnv(v, "auth_rate_limit_rps", "AUTH_RATE_LIMIT_RPS", "LEDGER_AUTH_RATE_LIMIT_RPS")
	bindEnv(v, "idempotency_ttl", "IDEMPOTENCY_TTL", "LEDGER_IDEMPOTENCY_TTL")
	bindEnv(v, "reconciliation_interval", "RECONCILIATION_INTERVAL", "LEDGER_RECONCILIATION_INTERVAL")
	bindEnv(v, "serialize_users", "LEDGER_SERIALIZE_USERS")
	bindEnv(v, "block_banned", "LEDGER_BLOCK_BANNED")

	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage_backend", BackendFile)
	v.SetDefault("data_dir", "data")
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "ledger.db")
	v.SetDefault("redis_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "banking-ledger")
	v.SetDefault("jwt_audience", "banking-api")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("admin_key", "")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("public_rate_limit_rps", 10)
	v.SetDefault("auth_rate_limit_rps", 100)
	v.SetDefault("idempotency_ttl", "24h")
	v.SetDefault("reconciliation_interval", "1h")
	v.SetDefault("serialize_users", true)
	v.SetDefault("block_banned", false)

	tokenTTL, err := time.ParseDuration(v.GetString("token_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	idempotencyTTL, err := time.ParseDuration(v.GetString("idempotency_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}
	reconciliationInterval, err := time.ParseDuration(v.GetString("reconciliation_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILIATION_INTERVAL: %w", err)
	}

	cfg := &Config{
		HTTPPort:               v.GetString("port"),
		LogLevel:               v.GetString("log_level"),
		StorageBackend:         strings.ToLower(strings.TrimSpace(v.GetString("storage_backend"))),
		DataDir:                v.GetString("data_dir"),
		DatabaseURL:            v.GetString("database_url"),
		SQLitePath:             v.GetString("sqlite_path"),
		RedisURL:               v.GetString("redis_url"),
		JWTSecret:              v.GetString("jwt_secret"),
		JWTIssuer:              v.GetString("jwt_issuer"),
		JWTAudience:            v.GetString("jwt_audience"),
		TokenTTL:               tokenTTL,
		AdminKey:               v.GetString("admin_key"),
		AdminEmail:             strings.TrimSpace(v.GetString("admin_email")),
		AdminPassword:          v.GetString("admin_password"),
		BcryptCost:             v.GetInt("bcrypt_cost"),
		PublicRateLimitRPS:     max(v.GetInt("public_rate_limit_rps"), 1),
		AuthRateLimitRPS:       max(v.GetInt("auth_rate_limit_rps"), 1),
		IdempotencyTTL:         idempotencyTTL,
		ReconciliationInterval: reconciliationInterval,
		SerializeUsers:         v.GetBool("serialize_users"),
		BlockBannedInLedger:    v.GetBool("block_banned"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if strings.TrimSpace(c.JWTIssuer) == "" {
		return fmt.Errorf("JWT_ISSUER is required")
	}
	if strings.TrimSpace(c.JWTAudience) == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	// Operator login is all-or-nothing.
	adminSet := 0
	for _, s := range []string{c.AdminKey, c.AdminEmail, c.AdminPassword} {
		if strings.TrimSpace(s) != "" {
			adminSet++
		}
	}
	if adminSet != 0 && adminSet != 3 {
		return fmt.Errorf("ADMIN_KEY, ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	switch c.StorageBackend {
	case BackendFile:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

// AdminLoginEnabled reports whether operator credentials were configured.
func (c *Config) AdminLoginEnabled() bool {
	return c.AdminKey != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

func bindEnv(v *viper.Viper, key string, names ...string) {
	args := append([]string{key}, names...)
	_ = v.BindEnv(args...)
}
