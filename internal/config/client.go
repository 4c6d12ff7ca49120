package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClientConfig holds adminctl settings.
type ClientConfig struct {
	BaseURL string `koanf:"base_url"`
	Timeout string `koanf:"timeout"`
	// PageSize is the rows per page of list output.
	PageSize int `koanf:"page_size"`
	// Pagination is "server" or "client".
	Pagination string `koanf:"pagination"`
}

// DefaultClientConfig returns the settings used when nothing is configured.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    "http://localhost:8080",
		Timeout:    "30s",
		PageSize:   DefaultPageSize,
		Pagination: "server",
	}
}

// LoadClient reads adminctl settings. The YAML file is optional: a missing
// path or file leaves the defaults in place. Environment variables use the
// prefix "ADMINCTL__", e.g. ADMINCTL__BASE_URL=http://admin:8080.
func LoadClient(configPath string) (*ClientConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("ADMINCTL__", ".", envKey("ADMINCTL__")), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	cfg := DefaultClientConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the client settings.
func (c *ClientConfig) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid base_url %q: must start with http:// or https://", c.BaseURL)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page_size %d: must be positive", c.PageSize)
	}
	c.Pagination = strings.ToLower(strings.TrimSpace(c.Pagination))
	switch c.Pagination {
	case "server", "client":
	default:
		return fmt.Errorf("invalid pagination %q: must be one of %q, %q", c.Pagination, "server", "client")
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty timeout means no timeout.
func (c *ClientConfig) TimeoutDuration() (time.Duration, error) {
	t := strings.TrimSpace(c.Timeout)
	if t == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(t)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be greater than 0", c.Timeout)
	}
	return d, nil
}

// DefaultClientConfigPath returns $HOME/.adminctl.yaml, or "" when the home
// directory is unknown.
func DefaultClientConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + string(os.PathSeparator) + ".adminctl.yaml"
}
