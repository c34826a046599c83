package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789-test-secret"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.SerializeUsers)
	assert.False(t, cfg.BlockBannedInLedger)
	assert.False(t, cfg.AdminLoginEnabled())
}

func TestLoadPrefixedAliases(t *testing.T) {
	t.Setenv("LEDGER_JWT_SECRET", testSecret)
	t.Setenv("LEDGER_STORAGE_BACKEND", "Memory")
	t.Setenv("LEDGER_ADMIN_KEY", "k")
	t.Setenv("LEDGER_ADMIN_EMAIL", "ops@example.com")
	t.Setenv("LEDGER_ADMIN_PASSWORD", "p")
	t.Setenv("LEDGER_BLOCK_BANNED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.True(t, cfg.AdminLoginEnabled())
	assert.True(t, cfg.BlockBannedInLedger)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := Load()
	assert.ErrorContains(t, err, "at least 32")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TOKEN_TTL", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			JWTSecret:      testSecret,
			JWTIssuer:      "iss",
			JWTAudience:    "aud",
			TokenTTL:       time.Hour,
			BcryptCost:     10,
			StorageBackend: BackendMemory,
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.AdminKey = "only-the-key"
	assert.ErrorContains(t, cfg.Validate(), "set together")

	cfg = base()
	cfg.StorageBackend = BackendPostgres
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg = base()
	cfg.StorageBackend = BackendRedis
	assert.ErrorContains(t, cfg.Validate(), "REDIS_URL")

	cfg = base()
	cfg.StorageBackend = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown STORAGE_BACKEND")

	cfg = base()
	cfg.BcryptCost = 2
	assert.ErrorContains(t, cfg.Validate(), "BCRYPT_COST")
}
