package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", "csrf")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "octabox_session", cfg.SessionCookie)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.AdminLoginRateLimit)
	assert.Equal(t, "@every 1h", cfg.SessionSweepCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresCSRFSecret(t *testing.T) {
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_LOGIN_RATE_LIMIT", "3")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.AdminLoginRateLimit)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
