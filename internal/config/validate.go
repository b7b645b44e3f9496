package config

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/epias-client/pkg/epias"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvProduction, EnvTest, EnvDevelopment:
	default:
		return fmt.Errorf("environment must be one of production, test, development, got %q", c.Environment)
	}

	if c.Credentials.Username == "" {
		return errors.New("credentials.username is required")
	}
	if c.Credentials.Password == "" {
		return errors.New("credentials.password is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.AuthURL() == "" {
		return fmt.Errorf("auth url for environment %q is required", c.Environment)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}

	if c.Ticket.ValidityHours < 1 {
		return errors.New("ticket.validity_hours must be >= 1")
	}
	if c.Ticket.RefreshMarginMinutes < 1 {
		return errors.New("ticket.refresh_margin_minutes must be >= 1")
	}
	if c.TicketRefreshMargin() >= c.TicketValidity() {
		return fmt.Errorf("ticket.refresh_margin_minutes (%d) must be shorter than the validity (%dh)",
			c.Ticket.RefreshMarginMinutes, c.Ticket.ValidityHours)
	}

	if c.Pagination.DefaultPageSize < 1 {
		return errors.New("pagination.default_page_size must be >= 1")
	}
	if c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return fmt.Errorf("pagination.max_page_size (%d) cannot be below default_page_size (%d)",
			c.Pagination.MaxPageSize, c.Pagination.DefaultPageSize)
	}
	if c.Pagination.MaxConcurrency < 1 {
		return errors.New("pagination.max_concurrency must be >= 1")
	}
	if c.Fetch.MaxConcurrency < 1 {
		return errors.New("fetch.max_concurrency must be >= 1")
	}

	if !epias.FilterKey(c.Fetch.OrganizationFilterKey).Valid() {
		return fmt.Errorf("fetch.organization_filter_key must be one of %v, got %q",
			epias.FilterKeys, c.Fetch.OrganizationFilterKey)
	}
	return nil
}
