package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the catalogdex configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Indexing IndexingConfig `yaml:"indexing"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PostgresConfig holds relationship store settings. An empty DSN disables
// subscriber and rating lookups.
type PostgresConfig struct {
	DSN               string `yaml:"dsn"`
	MaxConns          int32  `yaml:"max_conns"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
}

// SearchConfig holds paging and facet settings.
type SearchConfig struct {
	DefaultPageSize    int `yaml:"default_page_size"`
	MaxPageSize        int `yaml:"max_page_size"`
	FacetBucketLimit   int `yaml:"facet_bucket_limit"`
	RatingsConcurrency int `yaml:"ratings_concurrency"`
}

// IndexingConfig holds bulk wait and recount settings.
type IndexingConfig struct {
	BulkWaitMs        int `yaml:"bulk_wait_ms"`
	PollIntervalMs    int `yaml:"poll_interval_ms"`
	RecountWorkers    int `yaml:"recount_workers"`
	RecountTimeoutSec int `yaml:"recount_timeout_sec"`
}

// BulkWait returns the bulk indexing bound.
func (c IndexingConfig) BulkWait() time.Duration {
	return time.Duration(c.BulkWaitMs) * time.Millisecond
}

// PollInterval returns the job stage poll interval.
func (c IndexingConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// RecountTimeout returns the per-job recount timeout.
func (c IndexingConfig) RecountTimeout() time.Duration {
	return time.Duration(c.RecountTimeoutSec) * time.Second
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

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

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding the process environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if !fileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Postgres.MaxConns <= 0 {
		c.Postgres.MaxConns = 10
	}
	if c.Postgres.ConnectTimeoutSec <= 0 {
		c.Postgres.ConnectTimeoutSec = 5
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.FacetBucketLimit <= 0 {
		c.Search.FacetBucketLimit = 100
	}
	if c.Search.RatingsConcurrency <= 0 {
		c.Search.RatingsConcurrency = 8
	}
	if c.Indexing.BulkWaitMs <= 0 {
		c.Indexing.BulkWaitMs = 5000
	}
	if c.Indexing.PollIntervalMs <= 0 {
		c.Indexing.PollIntervalMs = 100
	}
	if c.Indexing.RecountWorkers <= 0 {
		c.Indexing.RecountWorkers = 4
	}
	if c.Indexing.RecountTimeoutSec <= 0 {
		c.Indexing.RecountTimeoutSec = 30
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "catalogdex:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf(
			"search.default_page_size (%d) must not exceed search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize,
		)
	}
	if c.Indexing.PollIntervalMs > c.Indexing.BulkWaitMs {
		return fmt.Errorf(
			"indexing.poll_interval_ms (%d) must not exceed indexing.bulk_wait_ms (%d)",
			c.Indexing.PollIntervalMs, c.Indexing.BulkWaitMs,
		)
	}
	if !strings.HasSuffix(c.Storage.KeyPrefix, ":") {
		return fmt.Errorf("storage.key_prefix must end with ':', got %q", c.Storage.KeyPrefix)
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
