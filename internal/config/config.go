package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds the MCP tool server configuration.
type ServerConfig struct {
	Name            string        `mapstructure:"name"`
	Version         string        `mapstructure:"version"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend"`
}

// DatabaseConfig holds Postgres configuration, used when storage.backend
// is "postgres".
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the database connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// NATSConfig holds NATS configuration for the job event relay.
type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	TestMode      bool          `mapstructure:"test_mode"`
}

// ProviderConfig holds external-system provider configuration.
type ProviderConfig struct {
	// Mode is "static" or "rest".
	Mode string `mapstructure:"mode"`
	// BaseURL is the external system's API root, used in rest mode.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each provider request in rest mode.
	Timeout time.Duration `mapstructure:"timeout"`
	// EntityTypesFile points to the YAML entity type definitions.
	EntityTypesFile string `mapstructure:"entity_types_file"`
}

// EmbeddingConfig holds vectorizer configuration.
type EmbeddingConfig struct {
	Dimensions int `mapstructure:"dimensions"`
}

// HistoryConfig holds job history retention configuration.
type HistoryConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) *Config {
	var config Config

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}

	return &config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Database.User == "" {
			return errors.New("database.user is required with the postgres backend")
		}
		if c.Database.Name == "" {
			return errors.New("database.name is required with the postgres backend")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return errors.New("database.port must be between 1 and 65535")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Provider.Mode {
	case "static":
	case "rest":
		if c.Provider.BaseURL == "" {
			return errors.New("provider.base_url is required in rest mode")
		}
	default:
		return fmt.Errorf("unknown provider mode %q", c.Provider.Mode)
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}

	if c.Embedding.Dimensions < 1 {
		return errors.New("embedding.dimensions must be at least 1")
	}

	return nil
}
