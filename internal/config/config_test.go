package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:5173", cfg.ClientURL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.CORSOrigins)
	assert.Equal(t, "data/aihub.db", cfg.DBPath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "common", cfg.MicrosoftTenantID)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "AIHUB-VVIT Team", cfg.MailFromName)
	assert.Equal(t, 2*time.Second, cfg.MailSendDelay)
	assert.Equal(t, 3, cfg.MailRetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.MailRetryDelay)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingTokenSecret(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the var truly absent
	// rather than empty.
	t.Setenv("JWT_SECRET", "placeholder")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	require.Error(t, err, "JWT_SECRET is required")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef")
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CLIENT_URL", "https://aihub.vvit.net")
	t.Setenv("MAIL_RETRY_ATTEMPTS", "5")
	t.Setenv("MAIL_SEND_DELAY", "500ms")
	t.Setenv("MICROSOFT_TENANT_ID", "tenant-guid")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://aihub.vvit.net", cfg.ClientURL)
	assert.Equal(t, 5, cfg.MailRetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.MailSendDelay)
	assert.Equal(t, "tenant-guid", cfg.MicrosoftTenantID)
	assert.True(t, cfg.IsProduction())
}
