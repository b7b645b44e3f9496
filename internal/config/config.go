// Package config loads EPİAŞ client settings from an optional YAML file and
// EPIAS_* environment variables.
package config

import (
	"time"

	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/client"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/fetch"
	"github.com/Sternrassler/epias-client/pkg/logging"
	"github.com/Sternrassler/epias-client/pkg/pagination"
)

// Environments accepted by Validate.
const (
	EnvProduction  = "production"
	EnvTest        = "test"
	EnvDevelopment = "development"
)

// Config is the top-level client configuration.
type Config struct {
	Environment string            `yaml:"environment"`
	Credentials CredentialsConfig `yaml:"credentials"`
	API         APIConfig         `yaml:"api"`
	Ticket      TicketConfig      `yaml:"ticket"`
	Pagination  PaginationConfig  `yaml:"pagination"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Log         LogConfig         `yaml:"log"`
}

// CredentialsConfig holds the transparency platform account.
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig holds endpoint URLs and HTTP settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	AuthURL        string        `yaml:"auth_url"`
	AuthTestURL    string        `yaml:"auth_test_url"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
}

// TicketConfig controls CAS ticket lifetime.
type TicketConfig struct {
	ValidityHours        int `yaml:"validity_hours"`
	RefreshMarginMinutes int `yaml:"refresh_margin_minutes"`
}

// PaginationConfig controls page walking.
type PaginationConfig struct {
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
	MaxConcurrency  int           `yaml:"max_concurrency"`
	PageTimeout     time.Duration `yaml:"page_timeout"`
}

// FetchConfig controls per-organization fan-out.
type FetchConfig struct {
	MaxConcurrency        int    `yaml:"max_concurrency"`
	OrganizationFilterKey string `yaml:"organization_filter_key"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// AuthURL returns the CAS URL for the configured environment.
func (c *Config) AuthURL() string {
	if c.Environment == EnvTest {
		return c.API.AuthTestURL
	}
	return c.API.AuthURL
}

// TicketValidity returns the ticket lifetime.
func (c *Config) TicketValidity() time.Duration {
	return time.Duration(c.Ticket.ValidityHours) * time.Hour
}

// TicketRefreshMargin returns how long before expiry a ticket is renewed.
func (c *Config) TicketRefreshMargin() time.Duration {
	return time.Duration(c.Ticket.RefreshMarginMinutes) * time.Minute
}

// AuthConfig builds the ticket manager configuration.
func (c *Config) AuthConfig() auth.Config {
	cfg := auth.DefaultConfig(c.Credentials.Username, c.Credentials.Password)
	cfg.AuthURL = c.AuthURL()
	cfg.Validity = c.TicketValidity()
	cfg.RefreshMargin = c.TicketRefreshMargin()
	return cfg
}

// ClientConfig builds the HTTP client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:        c.API.BaseURL,
		UserAgent:      c.API.UserAgent,
		AcceptLanguage: c.API.AcceptLanguage,
		Timeout:        c.API.Timeout,
	}
}

// FetcherConfig builds the fetcher configuration.
func (c *Config) FetcherConfig() fetch.Config {
	return fetch.Config{
		MaxConcurrency: c.Fetch.MaxConcurrency,
		FilterKey:      epias.FilterKey(c.Fetch.OrganizationFilterKey),
		Pagination: pagination.Config{
			PageSize:       c.Pagination.DefaultPageSize,
			MaxPageSize:    c.Pagination.MaxPageSize,
			MaxConcurrency: c.Pagination.MaxConcurrency,
			Timeout:        c.Pagination.PageTimeout,
		},
	}
}

// LoggingConfig builds the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
