package gateway

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds video provider connection parameters.
type Config struct {
	BaseURL         string   `toml:"base_url"`
	APIKey          string   `toml:"api_key"`
	Timeout         string   `toml:"timeout"`
	UploadTimeout   string   `toml:"upload_timeout"`
	IndexPrefix     string   `toml:"index_prefix"`
	IndexID         string   `toml:"index_id"`
	Engines         []string `toml:"engines"`
	ClassifyOptions []string `toml:"classify_options"`
	CacheSize       int      `toml:"url_cache_size"`
	CacheTTL        string   `toml:"url_cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL     string
	APIKey      string
	Timeout       string
	UploadTimeout string
	IndexPrefix   string
	IndexID       string
	CacheSize     string
	CacheTTL      string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// UploadTimeoutDuration returns UploadTimeout as a time.Duration.
func (c *Config) UploadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.UploadTimeout)
	return d
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.UploadTimeout != "" {
		c.UploadTimeout = overlay.UploadTimeout
	}
	if overlay.IndexPrefix != "" {
		c.IndexPrefix = overlay.IndexPrefix
	}
	if overlay.IndexID != "" {
		c.IndexID = overlay.IndexID
	}
	if overlay.Engines != nil {
		c.Engines = overlay.Engines
	}
	if overlay.ClassifyOptions != nil {
		c.ClassifyOptions = overlay.ClassifyOptions
	}
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.twelvelabs.io/v1.2"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.UploadTimeout == "" {
		c.UploadTimeout = "1h"
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = "warden"
	}
	if len(c.Engines) == 0 {
		c.Engines = []string{"marengo2.6", "pegasus1"}
	}
	if len(c.ClassifyOptions) == 0 {
		c.ClassifyOptions = []string{"visual"}
	}
	if c.CacheSize == 0 {
		c.CacheSize = 256
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "10m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.UploadTimeout != "" {
		if v := os.Getenv(env.UploadTimeout); v != "" {
			c.UploadTimeout = v
		}
	}
	if env.IndexPrefix != "" {
		if v := os.Getenv(env.IndexPrefix); v != "" {
			c.IndexPrefix = v
		}
	}
	if env.IndexID != "" {
		if v := os.Getenv(env.IndexID); v != "" {
			c.IndexID = v
		}
	}
	if env.CacheSize != "" {
		if v := os.Getenv(env.CacheSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.CacheSize = n
			}
		}
	}
	if env.CacheTTL != "" {
		if v := os.Getenv(env.CacheTTL); v != "" {
			c.CacheTTL = v
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.APIKey == "" {
		return fmt.Errorf("api_key required")
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	if d, err := time.ParseDuration(c.UploadTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid upload_timeout: %q", c.UploadTimeout)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	return nil
}
