package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the gallery search configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	SearchService SearchServiceConfig `yaml:"search_service"`
	Gallery       GalleryConfig       `yaml:"gallery"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the catalog store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchServiceConfig holds the remote search index settings.
// The URI may embed credentials as user:password@host.
type SearchServiceConfig struct {
	URI        string  `yaml:"uri"`
	Enabled    bool    `yaml:"enabled"`
	TimeoutSec int     `yaml:"timeout_sec"`
	RateLimit  float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst  int     `yaml:"rate_burst"`
}

// GalleryConfig holds paging settings.
type GalleryConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// JobsConfig holds background job settings.
type JobsConfig struct {
	// HasWorker is true when a separate worker process owns periodic jobs.
	HasWorker             bool `yaml:"has_worker"`
	StatisticsIntervalSec int  `yaml:"statistics_interval_sec"`
	StatisticsTimeoutSec  int  `yaml:"statistics_timeout_sec"`
}

// AuthConfig holds the API keys accepted for catalog writes.
// An empty list disables the check.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a YAML config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.SearchService.TimeoutSec <= 0 {
		c.SearchService.TimeoutSec = 30
	}
	if c.SearchService.RateLimit > 0 && c.SearchService.RateBurst <= 0 {
		c.SearchService.RateBurst = 1
	}
	if c.Gallery.DefaultPageSize <= 0 {
		c.Gallery.DefaultPageSize = 20
	}
	if c.Gallery.MaxPageSize <= 0 {
		c.Gallery.MaxPageSize = 40
	}
	if c.Jobs.StatisticsIntervalSec <= 0 {
		c.Jobs.StatisticsIntervalSec = 300
	}
	if c.Jobs.StatisticsTimeoutSec <= 0 {
		c.Jobs.StatisticsTimeoutSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "", "valkey", "redis":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.SearchService.Enabled && c.SearchService.URI == "" {
		return fmt.Errorf("search_service.uri is required when search_service.enabled is true")
	}
	if c.SearchService.RateLimit < 0 {
		return fmt.Errorf("search_service.rate_limit must be >= 0, got %v", c.SearchService.RateLimit)
	}
	if c.Gallery.MaxPageSize < c.Gallery.DefaultPageSize {
		return fmt.Errorf("gallery.max_page_size (%d) must be >= gallery.default_page_size (%d)",
			c.Gallery.MaxPageSize, c.Gallery.DefaultPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
