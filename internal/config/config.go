package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/jsonassert/internal/errors"
)

// Property keys, shared by the YAML file and the environment overrides
const (
	KeyConnectionTimeout = "connection.timeout"
	KeyUseURICache       = "use.uri.cache"
)

// DefaultConnectionTimeout is the connect and read timeout in milliseconds
const DefaultConnectionTimeout = 1000

const envPrefix = "jsonassert"

// Config holds the settings used when sources are fetched
type Config struct {
	// ConnectionTimeout bounds both connecting and each read, in milliseconds
	ConnectionTimeout int  `yaml:"connection.timeout"`
	UseURICache       bool `yaml:"use.uri.cache"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ConnectionTimeout: DefaultConnectionTimeout,
		UseURICache:       false,
	}
}

// Timeout returns the connection timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConnectionTimeout) * time.Millisecond
}

// Validate rejects settings the fetcher cannot work with
func (c *Config) Validate() error {
	if c.ConnectionTimeout <= 0 {
		return errors.NewConfigError(
			fmt.Sprintf("%s must be positive, got %d", KeyConnectionTimeout, c.ConnectionTimeout),
			errors.ErrInvalidConfig,
		)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	return cfg, nil
}

// Load builds the configuration from the defaults, then the config file at
// path (or the nearest one found when path is empty), then the environment.
// A .env file in the working directory is read into the environment first.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path == "" {
		path = FindConfigFile()
	}

	cfg := NewConfig()
	switch {
	case path == "":
		logger.Debug("no config file found, using defaults")
	case !fileExists(path):
		logger.Warn("config file not found, using defaults", slog.String("path", path))
	default:
		fileConfig, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded config file", slog.String("path", path))
		cfg = fileConfig
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.NewConfigError("failed to load .env file", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithCLI loads config with CLI argument precedence. A zero timeout and
// a false cache flag mean the flag was not given.
func LoadWithCLI(configPath string, cliTimeout int, cliCache bool, logger *slog.Logger) (*Config, error) {
	cfg, err := Load(configPath, logger)
	if err != nil {
		return nil, err
	}

	if cliTimeout != 0 {
		cfg.ConnectionTimeout = cliTimeout
	}
	if cliCache {
		cfg.UseURICache = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvName returns the environment variable that overrides a property key,
// e.g. JSONASSERT_CONNECTION_TIMEOUT for connection.timeout
func EnvName(key string) string {
	return strcase.ToScreamingSnake(envPrefix + "." + key)
}

func (c *Config) applyEnv() error {
	if raw, ok := lookupEnv(KeyConnectionTimeout); ok {
		timeout, err := strconv.Atoi(raw)
		if err != nil {
			return errors.NewConfigError(
				fmt.Sprintf("%s is not a number: %q", EnvName(KeyConnectionTimeout), raw), err)
		}
		c.ConnectionTimeout = timeout
	}

	if raw, ok := lookupEnv(KeyUseURICache); ok {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.NewConfigError(
				fmt.Sprintf("%s is not a boolean: %q", EnvName(KeyUseURICache), raw), err)
		}
		c.UseURICache = enabled
	}

	return nil
}

func lookupEnv(key string) (string, bool) {
	raw, ok := os.LookupEnv(EnvName(key))
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jsonassert.yml", ".jsonassert.yaml", "jsonassert.yml", "jsonassert.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
