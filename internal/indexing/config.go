package indexing

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds poll cadence and the bounds on indexing work.
type Config struct {
	PollInterval  string `toml:"poll_interval"`
	Deadline      string `toml:"deadline"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	PollInterval  string
	Deadline      string
	MaxConcurrent string
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// DeadlineDuration returns Deadline as a time.Duration.
func (c *Config) DeadlineDuration() time.Duration {
	d, _ := time.ParseDuration(c.Deadline)
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
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.Deadline != "" {
		c.Deadline = overlay.Deadline
	}
	if overlay.MaxConcurrent != 0 {
		c.MaxConcurrent = overlay.MaxConcurrent
	}
}

func (c *Config) loadDefaults() {
	if c.PollInterval == "" {
		c.PollInterval = "5s"
	}
	if c.Deadline == "" {
		c.Deadline = "30m"
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 2
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.PollInterval != "" {
		if v := os.Getenv(env.PollInterval); v != "" {
			c.PollInterval = v
		}
	}
	if env.Deadline != "" {
		if v := os.Getenv(env.Deadline); v != "" {
			c.Deadline = v
		}
	}
	if env.MaxConcurrent != "" {
		if v := os.Getenv(env.MaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxConcurrent = n
			}
		}
	}
}

func (c *Config) validate() error {
	interval, err := time.ParseDuration(c.PollInterval)
	if err != nil || interval <= 0 {
		return fmt.Errorf("invalid poll_interval: %q", c.PollInterval)
	}
	deadline, err := time.ParseDuration(c.Deadline)
	if err != nil {
		return fmt.Errorf("invalid deadline: %w", err)
	}
	if deadline <= interval {
		return fmt.Errorf("deadline (%s) must exceed poll_interval (%s)", deadline, interval)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1")
	}
	return nil
}
