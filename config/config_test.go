package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears `keys` for the duration of the test, restoring them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var allKeys = []string{
	"APICHECK_DEBUG", "APICHECK_CONCURRENCY", "APICHECK_REQUEST_TIMEOUT_SECS", "APICHECK_SCENARIO_TIMEOUT_SECS",
	"APICHECK_GITHUB_TOKEN", "GITHUB_TOKEN", "TOKEN", "APICHECK_GITHUB_URL", "APICHECK_PLACEHOLDER_URL",
	"APICHECK_ECHO_URL", "APICHECK_ECHO_IMAGE", "APICHECK_DOTENV",
}

func TestDefaults(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("APICHECK_DOTENV", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := NewConfigFromEnvVars()
	require.NoError(t, err)
	assert.False(t, cfg.DebugLoggingEnabled)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.ScenarioTimeout)
	assert.Equal(t, "", cfg.GitHubToken)
	assert.Equal(t, "kennethreitz/httpbin", cfg.EchoImage)

	collabs := cfg.Collaborators()
	assert.Equal(t, "https://api.github.com", collabs[GitHub].BaseURL)
	assert.Equal(t, "https://jsonplaceholder.typicode.com", collabs[Placeholder].BaseURL)
	assert.Equal(t, "https://httpbin.org", collabs[Echo].BaseURL)
}

func TestOverrides(t *testing.T) {
	unsetEnv(t, allKeys...)
	t.Setenv("APICHECK_DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APICHECK_CONCURRENCY", "0")
	t.Setenv("APICHECK_REQUEST_TIMEOUT_SECS", "nope")
	t.Setenv("APICHECK_SCENARIO_TIMEOUT_SECS", "5")
	t.Setenv("APICHECK_GITHUB_URL", "http://localhost:1234/")
	t.Setenv("TOKEN", "legacy")

	cfg, err := NewConfigFromEnvVars()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.ScenarioTimeout)
	assert.Equal(t, "legacy", cfg.GitHubToken)
	assert.Equal(t, "http://localhost:1234", cfg.Collaborators()[GitHub].BaseURL)
	assert.Equal(t, "legacy", cfg.Collaborators()[GitHub].BearerToken)
	assert.Equal(t, "", cfg.Collaborators()[Placeholder].BearerToken)

	t.Setenv("GITHUB_TOKEN", "preferred")
	cfg, err = NewConfigFromEnvVars()
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.GitHubToken)
}

func TestDotEnv(t *testing.T) {
	unsetEnv(t, allKeys...)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APICHECK_ECHO_IMAGE=mccutchen/go-httpbin\nAPICHECK_CONCURRENCY=9\n"), 0o600))
	t.Setenv("APICHECK_DOTENV", path)
	// the environment wins over the file
	t.Setenv("APICHECK_CONCURRENCY", "2")

	cfg, err := NewConfigFromEnvVars()
	require.NoError(t, err)
	assert.Equal(t, "mccutchen/go-httpbin", cfg.EchoImage)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestWithBaseURLs(t *testing.T) {
	cfg := &Config{GitHubURL: "https://api.github.com", EchoURL: "https://httpbin.org"}
	cp := cfg.WithBaseURLs(map[string]string{Echo: "http://127.0.0.1:8080", "unknown": "x"})
	assert.Equal(t, "http://127.0.0.1:8080", cp.Collaborators()[Echo].BaseURL)
	assert.Equal(t, "https://httpbin.org", cfg.EchoURL)
	assert.Equal(t, "https://api.github.com", cp.GitHubURL)
}
