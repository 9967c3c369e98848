package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Feed    FeedConfig    `yaml:"feed"`
	Backup  BackupConfig  `yaml:"backup"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"9337"`
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

// StorageConfig holds the persistent store configuration.
type StorageConfig struct {
	Path string `yaml:"path" envconfig:"STORAGE_PATH" default:"/data/canary.db"`
}

// FeedConfig holds the remote timeline API configuration.
type FeedConfig struct {
	BaseURL     string        `yaml:"base_url" envconfig:"FEED_BASE_URL" default:"https://api.twitter.com/2"`
	BearerToken string        `yaml:"bearer_token" envconfig:"FEED_BEARER_TOKEN"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"FEED_TIMEOUT" default:"15s"`
	PageSize    int           `yaml:"page_size" envconfig:"FEED_PAGE_SIZE" default:"20"`
}

// BackupConfig holds the remote snapshot store configuration.
type BackupConfig struct {
	RemoteURL    string        `yaml:"remote_url" envconfig:"BACKUP_REMOTE_URL"`
	ShareURLBase string        `yaml:"share_url_base" envconfig:"BACKUP_SHARE_URL_BASE" default:"https://canary.app/restore?canary="`
	Passphrase   string        `yaml:"passphrase" envconfig:"BACKUP_PASSPHRASE" default:"canary"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"BACKUP_TIMEOUT" default:"30s"`
	RestartDelay time.Duration `yaml:"restart_delay" envconfig:"BACKUP_RESTART_DELAY" default:"5s"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if c.Feed.BearerToken == "" {
		return fmt.Errorf("FEED_BEARER_TOKEN is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("STORAGE_PATH is required")
	}
	if c.Feed.PageSize < 1 || c.Feed.PageSize > 100 {
		return fmt.Errorf("FEED_PAGE_SIZE must be between 1 and 100")
	}
	if c.Backup.RemoteURL != "" && c.Backup.Passphrase == "" {
		return fmt.Errorf("BACKUP_PASSPHRASE is required when BACKUP_REMOTE_URL is set")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
