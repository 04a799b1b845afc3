package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Setenv(EnvDisableAutomation, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	cfg := Default()

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, DefaultViewportWidth, cfg.Browser.ViewportWidth)
	assert.Equal(t, DefaultViewportHeight, cfg.Browser.ViewportHeight)
	assert.Equal(t, DefaultTimeoutMs, cfg.Browser.TimeoutMs)
	assert.Equal(t, DefaultModel, cfg.Gateway.Model)
	assert.Equal(t, DefaultImageModel, cfg.Gateway.ImageModel)
	assert.False(t, cfg.AutomationDisabled)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvDisableAutomation, "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvBaseURL, "")

	path := filepath.Join(t.TempDir(), "humm.yaml")
	content := `
browser:
  headless: false
  viewport_width: 1920
  allowed_hosts:
    - "*.example.com"
    - "news.ycombinator.com"
gateway:
  model: gpt-4o-mini
  api_key: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	// Unset fields fall back to defaults.
	assert.Equal(t, DefaultViewportHeight, cfg.Browser.ViewportHeight)
	assert.Equal(t, "gpt-4o-mini", cfg.Gateway.Model)
	assert.Equal(t, "from-file", cfg.Gateway.APIKey)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvBaseURL, "http://localhost:8080/v1")
	t.Setenv(EnvDisableAutomation, "")

	path := filepath.Join(t.TempDir(), "humm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway:\n  api_key: from-file\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gateway.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", cfg.Gateway.BaseURL)
}

func TestAutomationDisabledEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		disabled bool
	}{
		{"unset", "", false},
		{"true", "true", true},
		{"one", "1", true},
		{"false", "false", false},
		{"garbage counts as disabled", "yes-really", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDisableAutomation, tt.value)
			cfg := Default()
			assert.Equal(t, tt.disabled, cfg.AutomationDisabled)
		})
	}
}

func TestHostAllowed(t *testing.T) {
	cfg := Default()
	cfg.Browser.AllowedHosts = []string{"*.example.com", "news.ycombinator.com"}

	assert.True(t, cfg.HostAllowed("sub.example.com"))
	assert.True(t, cfg.HostAllowed("news.ycombinator.com"))
	assert.False(t, cfg.HostAllowed("evil.com"))

	// Empty allowlist permits everything.
	open := Default()
	assert.True(t, open.HostAllowed("anything.at.all"))
}

func TestLoadRejectsBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "humm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("browser:\n  allowed_hosts: [\"[\"]\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
