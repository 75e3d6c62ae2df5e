package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Terminal  TerminalConfig
	Storage   StorageConfig
	Inventory InventoryConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8700"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// TerminalConfig holds terminal backend configuration.
type TerminalConfig struct {
	Shell          string `envconfig:"TERM_SHELL" default:""`
	ConnectTimeout int    `envconfig:"TERM_CONNECT_TIMEOUT_SEC" default:"15"`
	BufferSize     int    `envconfig:"TERM_BUFFER_SIZE" default:"262144"`
}

// StorageConfig holds snapshot and tab-order persistence configuration.
type StorageConfig struct {
	Path    string `envconfig:"STORAGE_PATH" default:"termweave.db"`
	Enabled bool   `envconfig:"STORAGE_ENABLED" default:"true"`
}

// InventoryConfig holds host inventory configuration.
type InventoryConfig struct {
	Path string `envconfig:"INVENTORY_PATH" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8700",
			Host: "127.0.0.1",
		},
		Terminal: TerminalConfig{
			ConnectTimeout: 15,
			BufferSize:     262144,
		},
		Storage: StorageConfig{
			Path:    "termweave.db",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
