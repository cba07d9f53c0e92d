package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "swiaape_session", cfg.Session.CookieName)
	assert.Equal(t, 5, cfg.Lookup.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.Lookup.RateWindow)
	assert.Equal(t, "swiaape.edu.pe", cfg.Auth.InstitutionalDomain)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTTL)
	assert.True(t, cfg.Auth.EnableDemoReset)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 2, cfg.Mail.Workers)
	assert.Equal(t, 3, cfg.Mail.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Mail.RetryDelay)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOOKUP_RATE_LIMIT", "0")
	t.Setenv("LOOKUP_RATE_WINDOW", "not-a-duration")
	t.Setenv("INSTITUTIONAL_DOMAIN", "@School.EDU")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("PASSWORD_RESET_BASE_URL", "https://portal.test/reset/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Lookup.RateLimit)
	assert.Equal(t, 5*time.Minute, cfg.Lookup.RateWindow)
	assert.Equal(t, "school.edu", cfg.Auth.InstitutionalDomain)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://portal.test/reset", cfg.Auth.ResetBaseURL)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
