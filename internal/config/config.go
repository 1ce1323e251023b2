// Package config loads the server configuration from an HCL file with
// sensible defaults for local use.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the server configuration.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `hcl:"listen_addr,optional"`

	// BasePath is the REST API mount point.
	BasePath string `hcl:"base_path,optional"`

	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string `hcl:"jwt_secret,optional"`

	// DisableAuth turns off bearer token checking entirely.
	DisableAuth bool `hcl:"disable_auth,optional"`

	// SeedFile points at a YAML fixture; empty uses the built-in dataset.
	SeedFile string `hcl:"seed_file,optional"`

	// DefaultPageSize applies when a request carries no page[size].
	DefaultPageSize int `hcl:"default_page_size,optional"`

	// LogLevel is the hclog level name.
	LogLevel string `hcl:"log_level,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr:      "127.0.0.1:5001",
		BasePath:        "/polarion/rest/v1",
		JWTSecret:       "dev-secret-key",
		DefaultPageSize: 100,
		LogLevel:        "info",
	}
}

// Load reads an HCL configuration file and layers it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.BasePath == "" {
		c.BasePath = d.BasePath
	}
	if c.JWTSecret == "" {
		c.JWTSecret = d.JWTSecret
	}
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = d.DefaultPageSize
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate checks the configuration, accumulating every problem.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.ListenAddr == "" {
		result = multierror.Append(result, fmt.Errorf("listen_addr is required"))
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		result = multierror.Append(result, fmt.Errorf("base_path must start with '/'"))
	}
	if strings.HasSuffix(c.BasePath, "/") {
		result = multierror.Append(result, fmt.Errorf("base_path must not end with '/'"))
	}
	if c.DefaultPageSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("default_page_size must be positive"))
	}
	if !c.DisableAuth && c.JWTSecret == "" {
		result = multierror.Append(result, fmt.Errorf("jwt_secret is required unless disable_auth is set"))
	}
	return result.ErrorOrNil()
}
