package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

var credentials = map[string]string{
	"EPIAS_USERNAME": "user@example.com",
	"EPIAS_PASSWORD": "secret",
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_EPIAS_PASSWORD", "from-env")

	path := writeTempFile(t, `
environment: test
credentials:
  username: analyst@example.com
  password: ${TEST_EPIAS_PASSWORD}
api:
  timeout: 45s
pagination:
  default_page_size: 250
  page_timeout: 2m
fetch:
  organization_filter_key: organizationId
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvTest, cfg.Environment)
	assert.Equal(t, "from-env", cfg.Credentials.Password)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, 250, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 2*time.Minute, cfg.Pagination.PageTimeout)
	assert.Equal(t, "organizationId", cfg.Fetch.OrganizationFilterKey)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeTempFile(t, "environment: [unclosed"))
	assert.ErrorContains(t, err, "parse config yaml")
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := load("", envMap(credentials))
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, epias.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultAuthURL, cfg.AuthURL())
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Hour, cfg.TicketValidity())
	assert.Equal(t, 10*time.Minute, cfg.TicketRefreshMargin())
	assert.Equal(t, 100, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 1000, cfg.Pagination.MaxPageSize)
	assert.Equal(t, DefaultFilterKey, cfg.Fetch.OrganizationFilterKey)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeTempFile(t, `
credentials:
  username: file-user
  password: file-pass
pagination:
  default_page_size: 50
`)
	env := map[string]string{
		"EPIAS_USERNAME":                   "env-user",
		"EPIAS_PASSWORD":                   "",
		"EPIAS_ENVIRONMENT":                "test",
		"EPIAS_AUTH_TEST_URL":              "https://cas.test",
		"EPIAS_API_TIMEOUT":                "12",
		"EPIAS_TGT_VALIDITY_HOURS":         "3",
		"EPIAS_TGT_REFRESH_MARGIN_MINUTES": "5",
		"EPIAS_DEFAULT_PAGE_SIZE":          "200",
		"EPIAS_MAX_CONCURRENCY":            "8",
		"EPIAS_ORGANIZATION_FILTER_KEY":    "organizationId",
		"EPIAS_LOG_LEVEL":                  "warn",
	}

	cfg, err := load(path, envMap(env))
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.Credentials.Username)
	assert.Equal(t, "file-pass", cfg.Credentials.Password, "empty variable is ignored")
	assert.Equal(t, "https://cas.test", cfg.AuthURL())
	assert.Equal(t, 12*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3*time.Hour, cfg.TicketValidity())
	assert.Equal(t, 5*time.Minute, cfg.TicketRefreshMargin())
	assert.Equal(t, 200, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 8, cfg.Pagination.MaxConcurrency)
	assert.Equal(t, 8, cfg.Fetch.MaxConcurrency)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvParseErrors(t *testing.T) {
	tests := map[string]string{
		"EPIAS_API_TIMEOUT":        "soon",
		"EPIAS_MAX_PAGE_SIZE":      "big",
		"EPIAS_MAX_CONCURRENCY":    "1.5",
		"EPIAS_TGT_VALIDITY_HOURS": "two",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			env := map[string]string{key: value}
			for k, v := range credentials {
				env[k] = v
			}
			_, err := load("", envMap(env))
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestAPITimeoutAcceptsDuration(t *testing.T) {
	env := map[string]string{"EPIAS_API_TIMEOUT": "1m30s"}
	for k, v := range credentials {
		env[k] = v
	}
	cfg, err := load("", envMap(env))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.API.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown environment", mutate: func(c *Config) { c.Environment = "staging" }, errorMsg: "environment must be one of"},
		{name: "missing username", mutate: func(c *Config) { c.Credentials.Username = "" }, errorMsg: "credentials.username is required"},
		{name: "missing password", mutate: func(c *Config) { c.Credentials.Password = "" }, errorMsg: "credentials.password is required"},
		{name: "missing test auth url", mutate: func(c *Config) { c.Environment = EnvTest; c.API.AuthTestURL = "" }, errorMsg: `auth url for environment "test"`},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -time.Second }, errorMsg: "api.timeout must be positive"},
		{name: "margin exceeds validity", mutate: func(c *Config) { c.Ticket.ValidityHours = 1; c.Ticket.RefreshMarginMinutes = 60 }, errorMsg: "must be shorter than the validity"},
		{name: "page size", mutate: func(c *Config) { c.Pagination.DefaultPageSize = -1 }, errorMsg: "default_page_size must be >= 1"},
		{name: "max below default", mutate: func(c *Config) { c.Pagination.MaxPageSize = 10 }, errorMsg: "cannot be below default_page_size"},
		{name: "fan-out concurrency", mutate: func(c *Config) { c.Fetch.MaxConcurrency = -2 }, errorMsg: "fetch.max_concurrency must be >= 1"},
		{name: "filter key", mutate: func(c *Config) { c.Fetch.OrganizationFilterKey = "eic" }, errorMsg: "organization_filter_key"},
		{name: "british filter key", mutate: func(c *Config) { c.Fetch.OrganizationFilterKey = "organisationId" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Credentials = CredentialsConfig{Username: "u", Password: "p"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errorMsg)
		})
	}
}

func TestComponentConfigs(t *testing.T) {
	cfg := Default()
	cfg.Credentials = CredentialsConfig{Username: "u", Password: "p"}
	cfg.Environment = EnvTest
	cfg.Fetch.OrganizationFilterKey = "organizationId"
	cfg.Log.Level = "debug"

	a := cfg.AuthConfig()
	assert.Equal(t, DefaultAuthTestURL, a.AuthURL)
	assert.Equal(t, "u", a.Username)
	assert.Equal(t, 2*time.Hour, a.Validity)
	assert.Equal(t, 10*time.Minute, a.RefreshMargin)

	c := cfg.ClientConfig()
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultUserAgent, c.UserAgent)
	assert.Equal(t, 30*time.Second, c.Timeout)

	f := cfg.FetcherConfig()
	assert.Equal(t, epias.FilterKeyOrganization, f.FilterKey)
	assert.Equal(t, 100, f.Pagination.PageSize)
	assert.Equal(t, DefaultPageTimeout, f.Pagination.Timeout)

	assert.Equal(t, logging.LevelDebug, cfg.LoggingConfig().Level)
}
