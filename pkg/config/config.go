package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
		APIKey  string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key required by the manual ingest endpoint (empty disables the check)"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:chieac.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Feed struct {
		URL       string        `yaml:"url" json:"url" jsonschema:"default=https://chieac.medium.com/feed,description=Medium RSS feed URL"`
		ScanLimit int           `yaml:"scan_limit" json:"scan_limit" jsonschema:"default=100,description=Maximum number of feed entries processed per run"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Feed fetch timeout"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=ChiEAC-CMS/1.0,description=User agent for feed requests"`
	} `yaml:"feed" json:"feed" jsonschema:"description=Medium feed configuration"`

	Schedule struct {
		Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"default=1h,description=Interval between scheduled ingest runs"`
	} `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`

	Lock struct {
		TTL time.Duration `yaml:"ttl" json:"ttl" jsonschema:"default=10m,description=Task lock time-to-live"`
	} `yaml:"lock" json:"lock" jsonschema:"description=Task lock configuration"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	// set defaults for server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	// set defaults for database
	if c.Database.DSN == "" {
		c.Database.DSN = "file:chieac.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	// set defaults for feed
	if c.Feed.URL == "" {
		c.Feed.URL = "https://chieac.medium.com/feed"
	}
	if c.Feed.ScanLimit == 0 {
		c.Feed.ScanLimit = 100
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Feed.UserAgent == "" {
		c.Feed.UserAgent = "ChiEAC-CMS/1.0"
	}

	// set defaults for schedule and lock
	if c.Schedule.Interval == 0 {
		c.Schedule.Interval = time.Hour
	}
	if c.Lock.TTL == 0 {
		c.Lock.TTL = 10 * time.Minute
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.Feed.URL, "http://") && !strings.HasPrefix(cfg.Feed.URL, "https://") {
		return fmt.Errorf("feed.url must be an http(s) URL")
	}
	if cfg.Feed.ScanLimit < 1 {
		return fmt.Errorf("feed.scan_limit must be at least 1")
	}
	if cfg.Feed.Timeout < time.Second {
		return fmt.Errorf("feed.timeout must be at least 1 second")
	}

	if cfg.Schedule.Interval < time.Minute {
		return fmt.Errorf("schedule.interval must be at least 1 minute")
	}
	if cfg.Lock.TTL < time.Minute {
		return fmt.Errorf("lock.ttl must be at least 1 minute")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetAPIKey returns the manual ingest API key, empty when the check is disabled
func (c *Config) GetAPIKey() string {
	return c.Server.APIKey
}
