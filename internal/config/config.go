// ABOUTME: Configuration loading and parsing for agclient profiles
// ABOUTME: Reads TOML or YAML with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents a complete agclient profile
type Config struct {
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Auth       AuthConfig       `toml:"auth" yaml:"auth"`
	Repository RepositoryConfig `toml:"repository" yaml:"repository"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Sandbox    SandboxConfig    `toml:"sandbox" yaml:"sandbox"`
}

// ServerConfig holds the server location and request timeout
type ServerConfig struct {
	URL     string        `toml:"url" yaml:"url"`
	Catalog string        `toml:"catalog" yaml:"catalog"`
	Timeout time.Duration `toml:"-" yaml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `toml:"timeout" yaml:"timeout"`
}

// AuthConfig holds HTTP Basic credentials
type AuthConfig struct {
	User     string `toml:"user" yaml:"user"`
	Password string `toml:"password" yaml:"password"`
}

// RepositoryConfig selects the repository and environment to work with
type RepositoryConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// SandboxConfig holds settings for the local development server
type SandboxConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Database string `toml:"database" yaml:"database"`
}

const (
	DefaultServerURL  = "http://localhost:10035"
	DefaultCatalog    = "/"
	DefaultRepository = "test"
	DefaultTimeout    = 60 * time.Second
	DefaultSandbox    = "127.0.0.1:10035"
)

// Default returns the profile used when no configuration file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:        DefaultServerURL,
			Catalog:    DefaultCatalog,
			Timeout:    DefaultTimeout,
			TimeoutRaw: DefaultTimeout.String(),
		},
		Repository: RepositoryConfig{Name: DefaultRepository},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		Sandbox: SandboxConfig{
			Addr:     DefaultSandbox,
			Database: filepath.Join(DataDir(), "sandbox.db"),
		},
	}
}

// DefaultPath returns the path to the profile file.
// Priority: AGCLIENT_CONFIG env var > XDG_CONFIG_HOME/agclient/config.toml > ~/.config/agclient/config.toml
func DefaultPath() string {
	if envPath := os.Getenv("AGCLIENT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "agclient", "config.toml")
}

// DataDir returns the agclient data directory.
// Priority: XDG_DATA_HOME/agclient > ~/.local/share/agclient
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "agclient")
}

// Load reads a profile from path. Environment variables in the form ${VAR}
// are expanded before parsing, and keys absent from the file keep their
// Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// SetTimeout updates both the parsed and raw timeout.
func (c *Config) SetTimeout(d time.Duration) {
	c.Server.Timeout = d
	c.Server.TimeoutRaw = d.String()
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("server.url has no host")
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Server.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Server.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Server.TimeoutRaw, err)
		}
		cfg.Server.Timeout = d
	}
	return nil
}
