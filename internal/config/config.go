// Package config loads the service configuration: an optional config.toml,
// an optional config.<WARDEN_ENV>.toml overlay, then WARDEN_* environment
// overrides, finalized section by section.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/warden/internal/gateway"
	"github.com/JaimeStill/warden/internal/indexing"
	"github.com/JaimeStill/warden/pkg/database"
	"github.com/JaimeStill/warden/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvWardenEnv             = "WARDEN_ENV"
	EnvWardenShutdownTimeout = "WARDEN_SHUTDOWN_TIMEOUT"
	EnvWardenVersion         = "WARDEN_VERSION"
	EnvWardenTaxonomyPath    = "WARDEN_TAXONOMY_PATH"
)

var databaseEnv = &database.Env{
	Host:            "WARDEN_DB_HOST",
	Port:            "WARDEN_DB_PORT",
	Name:            "WARDEN_DB_NAME",
	User:            "WARDEN_DB_USER",
	Password:        "WARDEN_DB_PASSWORD",
	SSLMode:         "WARDEN_DB_SSL_MODE",
	MaxOpenConns:    "WARDEN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "WARDEN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "WARDEN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "WARDEN_DB_CONN_TIMEOUT",
}

// DatabaseEnv returns the environment variable names that override database
// settings. Tools that only need the database share them with the server.
func DatabaseEnv() *database.Env {
	return databaseEnv
}

var storageEnv = &storage.Env{
	Provider:         "WARDEN_STORAGE_PROVIDER",
	Path:             "WARDEN_STORAGE_PATH",
	ContainerName:    "WARDEN_STORAGE_CONTAINER_NAME",
	ConnectionString: "WARDEN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "WARDEN_STORAGE_SERVICE_URL",
}

var providerEnv = &gateway.Env{
	BaseURL:       "WARDEN_PROVIDER_BASE_URL",
	APIKey:        "WARDEN_PROVIDER_API_KEY",
	Timeout:       "WARDEN_PROVIDER_TIMEOUT",
	UploadTimeout: "WARDEN_PROVIDER_UPLOAD_TIMEOUT",
	IndexPrefix:   "WARDEN_PROVIDER_INDEX_PREFIX",
	IndexID:       "WARDEN_PROVIDER_INDEX_ID",
	CacheSize:     "WARDEN_PROVIDER_URL_CACHE_SIZE",
	CacheTTL:      "WARDEN_PROVIDER_URL_CACHE_TTL",
}

var indexingEnv = &indexing.Env{
	PollInterval:  "WARDEN_INDEXING_POLL_INTERVAL",
	Deadline:      "WARDEN_INDEXING_DEADLINE",
	MaxConcurrent: "WARDEN_INDEXING_MAX_CONCURRENT",
}

// Config is the root configuration for the Warden service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Provider        gateway.Config  `toml:"provider"`
	Indexing        indexing.Config `toml:"indexing"`
	TaxonomyPath    string          `toml:"taxonomy_path"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the WARDEN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvWardenEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.TaxonomyPath != "" {
		c.TaxonomyPath = overlay.TaxonomyPath
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Provider.Merge(&overlay.Provider)
	c.Indexing.Merge(&overlay.Indexing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Provider.Finalize(providerEnv); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := c.Indexing.Finalize(indexingEnv); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	return c.validate()
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvWardenShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvWardenVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvWardenTaxonomyPath); v != "" {
		c.TaxonomyPath = v
	}
}

// validate runs after every section is finalized so cross-section
// constraints see final values.
func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	// Upload requests stay open until indexing is terminal.
	if c.Server.WriteTimeoutDuration() <= c.Indexing.DeadlineDuration() {
		return fmt.Errorf(
			"server.write_timeout (%s) must exceed indexing.deadline (%s)",
			c.Server.WriteTimeout, c.Indexing.Deadline,
		)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvWardenEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
