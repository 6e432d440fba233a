package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, "master", cfg.GitHub.BaseBranch)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, 10, cfg.Extract.PerMinute)
	assert.Equal(t, 10*time.Second, cfg.Extract.Timeout)
	assert.Empty(t, cfg.Server.AllowedOrigins)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load([]string{"-port", "7070"})
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_AllowedOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://abhivaikar.github.io, http://localhost:3000 ,")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://abhivaikar.github.io", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	_, err := Load([]string{"-env", "sandbox"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load([]string{"-read-timeout", "fast"})
	require.Error(t, err)
}

func TestLoad_ProductionRequiresRepoAndCredentials(t *testing.T) {
	_, err := Load([]string{"-env", "production"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPO_OWNER")

	t.Setenv("REPO_OWNER", "abhivaikar")
	t.Setenv("REPO_NAME", "howtheytest")
	_, err = Load([]string{"-env", "production"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")

	t.Setenv("GITHUB_TOKEN", "ghp_test")
	cfg, err := Load([]string{"-env", "production"})
	require.NoError(t, err)
	assert.True(t, cfg.GitHub.HasCredentials())
}

func TestExpandNewlines(t *testing.T) {
	t.Setenv("GITHUB_APP_PRIVATE_KEY", `-----BEGIN KEY-----\nabc\n-----END KEY-----`)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN KEY-----\nabc\n-----END KEY-----", cfg.GitHub.PrivateKey)
}

func TestHasCredentials(t *testing.T) {
	assert.False(t, GitHubConfig{}.HasCredentials())
	assert.True(t, GitHubConfig{Token: "ghp_x"}.HasCredentials())
	assert.False(t, GitHubConfig{AppID: "1", InstallationID: "2"}.HasCredentials())
	assert.True(t, GitHubConfig{AppID: "1", InstallationID: "2", PrivateKey: "pem"}.HasCredentials())
}
