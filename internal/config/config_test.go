package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8431", cfg.HTTPAddr)
	assert.Equal(t, "dev-only-secret", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 5, cfg.LoginMaxFailed)
	assert.Equal(t, 15, cfg.LoginLockMinutes)
	assert.True(t, cfg.Log.Dev)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("LOGIN_MAX_FAILED", "3")
	t.Setenv("LOG_DEV", "no")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/community")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.LoginMaxFailed)
	assert.False(t, cfg.Log.Dev)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "postgres://u:p@db:5432/community", cfg.Database.DSN)
}

func TestLoad_RequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_SuperAdminPairMustBeComplete(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SUPERADMIN_EMAIL", "root@example.com")
	t.Setenv("SUPERADMIN_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG_X", "on")
	assert.True(t, getBool("FLAG_X", false))
	t.Setenv("FLAG_X", "garbage")
	assert.True(t, getBool("FLAG_X", true))
}
