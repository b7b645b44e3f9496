package config

import (
	"time"

	"github.com/Sternrassler/epias-client/pkg/epias"
)

// Default values for optional configuration fields.
const (
	DefaultEnvironment          = EnvProduction
	DefaultBaseURL              = epias.DefaultBaseURL
	DefaultAuthURL              = "https://giris.epias.com.tr"
	DefaultAuthTestURL          = "https://giris-prp.epias.com.tr"
	DefaultAPITimeout           = 30 * time.Second
	DefaultUserAgent            = "epias-client/1.0"
	DefaultAcceptLanguage       = "en"
	DefaultValidityHours        = 2
	DefaultRefreshMarginMinutes = 10
	DefaultPageSize             = 100
	DefaultMaxPageSize          = 1000
	DefaultMaxConcurrency       = 4
	DefaultPageTimeout          = 60 * time.Second
	DefaultFilterKey            = string(epias.FilterKeyPowerPlant)
	DefaultLogLevel             = "info"
)

// Default returns a configuration with every optional field set.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.AuthURL == "" {
		c.API.AuthURL = DefaultAuthURL
	}
	if c.API.AuthTestURL == "" {
		c.API.AuthTestURL = DefaultAuthTestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = DefaultUserAgent
	}
	if c.API.AcceptLanguage == "" {
		c.API.AcceptLanguage = DefaultAcceptLanguage
	}

	if c.Ticket.ValidityHours == 0 {
		c.Ticket.ValidityHours = DefaultValidityHours
	}
	if c.Ticket.RefreshMarginMinutes == 0 {
		c.Ticket.RefreshMarginMinutes = DefaultRefreshMarginMinutes
	}

	if c.Pagination.DefaultPageSize == 0 {
		c.Pagination.DefaultPageSize = DefaultPageSize
	}
	if c.Pagination.MaxPageSize == 0 {
		c.Pagination.MaxPageSize = DefaultMaxPageSize
	}
	if c.Pagination.MaxConcurrency == 0 {
		c.Pagination.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Pagination.PageTimeout == 0 {
		c.Pagination.PageTimeout = DefaultPageTimeout
	}

	if c.Fetch.MaxConcurrency == 0 {
		c.Fetch.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Fetch.OrganizationFilterKey == "" {
		c.Fetch.OrganizationFilterKey = DefaultFilterKey
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
