package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.Review.MaxChangedFiles)
	assert.True(t, cfg.Review.RetryOnError)
	assert.Equal(t, "/review", cfg.Review.TriggerCommand)
	assert.Equal(t, "ai-review-pending", cfg.Review.PendingLabel)
	assert.Equal(t, "ai-reviewed", cfg.Review.ReviewedLabel)
	assert.Equal(t, 25*time.Minute, cfg.Engine.Timeout())
	assert.Equal(t, "claude", cfg.Engine.Command)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
review:
  max_changed_files: 50
  retry_on_error: false
engine:
  timeout_minutes: 10
github:
  token: tok
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Review.MaxChangedFiles)
	assert.False(t, cfg.Review.RetryOnError)
	assert.Equal(t, 10*time.Minute, cfg.Engine.Timeout())
	assert.Equal(t, "tok", cfg.GitHub.Token)
	// Untouched settings keep their defaults
	assert.Equal(t, "/review", cfg.Review.TriggerCommand)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Review.MaxChangedFiles)
}

func TestValidateRequiresCredentials(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "")
	t.Setenv("GITHUB_APP_ID", "")
	t.Setenv("GITHUB_INSTALLATION_ID", "")

	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())

	cfg.GitHub.Token = "tok"
	assert.NoError(t, cfg.Validate())
}

func TestValidateTokenFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-tok")

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "env-tok", cfg.GitHub.Token)
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "tok"

	cfg.Review.MaxChangedFiles = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GitHub.Token = "tok"
	cfg.Engine.TimeoutMinutes = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GitHub.Token = "tok"
	cfg.Engine.Command = ""
	assert.Error(t, cfg.Validate())
}
