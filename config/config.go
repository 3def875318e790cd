package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Names of the collaborators every scenario targets.
const (
	GitHub      = "github"
	Placeholder = "placeholder"
	Echo        = "echo"
)

// Collaborator is an external HTTP service under test.
type Collaborator struct {
	Name    string
	BaseURL string
	// BearerToken is injected into every request to this collaborator, if set.
	BearerToken string
}

// The config for running apicheck. This is configured using environment variables, optionally loaded
// from a dotenv file first. The comments in this struct are structured the same way for every field:
// Name, Default and Description.
type Config struct {
	// Name: APICHECK_DEBUG
	// Default: 0
	// Description: If 1, prints out more verbose logging such as HTTP request/response bodies.
	DebugLoggingEnabled bool
	// Name: APICHECK_CONCURRENCY
	// Default: 4
	// Description: The maximum number of scenarios which run at the same time. Values below 1 are
	// treated as 1.
	Concurrency int
	// Name: APICHECK_REQUEST_TIMEOUT_SECS
	// Default: 30
	// Description: The number of seconds a single HTTP request may take, from dialling to reading the
	// last byte of the body. A request which takes longer is a transport error.
	RequestTimeout time.Duration
	// Name: APICHECK_SCENARIO_TIMEOUT_SECS
	// Default: 60
	// Description: The number of seconds a whole scenario may take across all of its steps. 0 or less
	// means scenarios have no time limit beyond the per-request timeout.
	ScenarioTimeout time.Duration
	// Name: APICHECK_GITHUB_TOKEN
	// Description: A GitHub personal access token, sent as a bearer token to the github collaborator.
	// Falls back to GITHUB_TOKEN and then TOKEN. Without a token, checks run unauthenticated and may
	// be skipped once the anonymous rate limit is exhausted.
	GitHubToken string
	// Name: APICHECK_GITHUB_URL
	// Default: https://api.github.com
	// Description: Base URL of the github collaborator.
	GitHubURL string
	// Name: APICHECK_PLACEHOLDER_URL
	// Default: https://jsonplaceholder.typicode.com
	// Description: Base URL of the placeholder collaborator.
	PlaceholderURL string
	// Name: APICHECK_ECHO_URL
	// Default: https://httpbin.org
	// Description: Base URL of the echo collaborator.
	EchoURL string
	// Name: APICHECK_ECHO_IMAGE
	// Default: kennethreitz/httpbin
	// Description: The Docker image used when the echo collaborator is started locally.
	EchoImage string
	// Name: APICHECK_DOTENV
	// Default: .env
	// Description: Path of a dotenv file loaded before reading any other variable. Variables already
	// set in the environment win. A missing file is ignored.
	DotEnvPath string
}

// NewConfigFromEnvVars loads the dotenv file, if any, then reads the configuration from the environment.
// Returns an error only if the dotenv file exists but cannot be parsed.
func NewConfigFromEnvVars() (*Config, error) {
	cfg := &Config{}
	cfg.DotEnvPath = envOr("APICHECK_DOTENV", ".env")
	if err := godotenv.Load(cfg.DotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.DotEnvPath, err)
	}
	cfg.DebugLoggingEnabled = os.Getenv("APICHECK_DEBUG") == "1"
	cfg.Concurrency = parseEnvWithDefault("APICHECK_CONCURRENCY", 4)
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	cfg.RequestTimeout = time.Duration(parseEnvWithDefault("APICHECK_REQUEST_TIMEOUT_SECS", 30)) * time.Second
	cfg.ScenarioTimeout = time.Duration(parseEnvWithDefault("APICHECK_SCENARIO_TIMEOUT_SECS", 60)) * time.Second
	cfg.GitHubToken = firstEnv("APICHECK_GITHUB_TOKEN", "GITHUB_TOKEN", "TOKEN")
	cfg.GitHubURL = envOr("APICHECK_GITHUB_URL", "https://api.github.com")
	cfg.PlaceholderURL = envOr("APICHECK_PLACEHOLDER_URL", "https://jsonplaceholder.typicode.com")
	cfg.EchoURL = envOr("APICHECK_ECHO_URL", "https://httpbin.org")
	cfg.EchoImage = envOr("APICHECK_ECHO_IMAGE", "kennethreitz/httpbin")
	return cfg, nil
}

// Collaborators returns every collaborator keyed by name.
func (c *Config) Collaborators() map[string]Collaborator {
	return map[string]Collaborator{
		GitHub:      {Name: GitHub, BaseURL: trimURL(c.GitHubURL), BearerToken: c.GitHubToken},
		Placeholder: {Name: Placeholder, BaseURL: trimURL(c.PlaceholderURL)},
		Echo:        {Name: Echo, BaseURL: trimURL(c.EchoURL)},
	}
}

// WithBaseURLs returns a copy of the config pointing each named collaborator at a different base URL.
// Unknown names are ignored.
func (c *Config) WithBaseURLs(urls map[string]string) *Config {
	cp := *c
	for name, u := range urls {
		switch name {
		case GitHub:
			cp.GitHubURL = u
		case Placeholder:
			cp.PlaceholderURL = u
		case Echo:
			cp.EchoURL = u
		}
	}
	return &cp
}

func trimURL(u string) string {
	return strings.TrimSuffix(u, "/")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseEnvWithDefault(key string, def int) int {
	s := os.Getenv(key)
	if s != "" {
		i, err := strconv.Atoi(s)
		if err != nil {
			// Don't bother trying to report it
			return def
		}
		return i
	}
	return def
}
