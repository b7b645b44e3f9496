package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the YAML file read by LoadFromEnv.
const EnvConfigPath = "EPIAS_CONFIG_PATH"

// Load reads a YAML config file and expands ${VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv builds the configuration from defaults, the optional file named
// by EPIAS_CONFIG_PATH and EPIAS_* overrides, then validates it.
func LoadFromEnv() (*Config, error) {
	return load(os.Getenv(EnvConfigPath), os.LookupEnv)
}

// LoadAndValidate is LoadFromEnv with an explicit file path. An empty path
// skips the file.
func LoadAndValidate(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides fields from EPIAS_* variables. Set-but-empty variables
// are ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, v)
		}
		*dst = n
		return nil
	}

	str("EPIAS_USERNAME", &c.Credentials.Username)
	str("EPIAS_PASSWORD", &c.Credentials.Password)
	str("EPIAS_API_BASE_URL", &c.API.BaseURL)
	str("EPIAS_AUTH_URL", &c.API.AuthURL)
	str("EPIAS_AUTH_TEST_URL", &c.API.AuthTestURL)
	str("EPIAS_ENVIRONMENT", &c.Environment)
	str("EPIAS_ORGANIZATION_FILTER_KEY", &c.Fetch.OrganizationFilterKey)
	str("EPIAS_LOG_LEVEL", &c.Log.Level)

	if v, ok := get("EPIAS_API_TIMEOUT"); ok {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("EPIAS_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}

	for key, dst := range map[string]*int{
		"EPIAS_TGT_VALIDITY_HOURS":         &c.Ticket.ValidityHours,
		"EPIAS_TGT_REFRESH_MARGIN_MINUTES": &c.Ticket.RefreshMarginMinutes,
		"EPIAS_DEFAULT_PAGE_SIZE":          &c.Pagination.DefaultPageSize,
		"EPIAS_MAX_PAGE_SIZE":              &c.Pagination.MaxPageSize,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}

	var concurrency int
	if err := integer("EPIAS_MAX_CONCURRENCY", &concurrency); err != nil {
		return err
	}
	if concurrency != 0 {
		c.Pagination.MaxConcurrency = concurrency
		c.Fetch.MaxConcurrency = concurrency
	}
	return nil
}

// parseSeconds accepts a bare number of seconds or a Go duration string.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
