package config

import (
	"fmt"
	"os"
	"time"

	"go-energy-dashboard/internal/model"
	"go-energy-dashboard/pkg/utils"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given
const DefaultPath = "dashboard.yaml"

// Config holds the dashboard server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Sessions SessionConfig  `yaml:"sessions"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxUploadMB     int64  `yaml:"max_upload_mb"`
}

// DatabaseConfig configures the session catalog.
type DatabaseConfig struct {
	Path string `yaml:"path"` // sqlite file, or :memory:
}

// SessionConfig configures session expiry.
type SessionConfig struct {
	TTL           string `yaml:"ttl"` // "0" keeps sessions until deleted
	SweepInterval string `yaml:"sweep_interval"`
}

// IngestConfig configures how uploads are typed.
type IngestConfig struct {
	CategoricalColumns   []string `yaml:"categorical_columns"`
	DeriveTimeDimensions bool     `yaml:"derive_time_dimensions"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "30s",
			WriteTimeout:    "60s",
			ShutdownTimeout: "10s",
			MaxUploadMB:     256,
		},
		Database: DatabaseConfig{
			Path: ":memory:",
		},
		Sessions: SessionConfig{
			TTL:           "2h",
			SweepInterval: "5m",
		},
		Ingest: IngestConfig{
			CategoricalColumns:   append([]string(nil), model.DefaultCategoricalColumns...),
			DeriveTimeDimensions: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file gives the
// defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("DASHBOARD_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("DASHBOARD_DB"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("DASHBOARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return utils.ParseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return utils.ParseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return utils.ParseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetSessionTTL returns the session idle timeout as a duration. A ttl of "0"
// turns expiry off.
func (c *Config) GetSessionTTL() time.Duration {
	if d, err := time.ParseDuration(c.Sessions.TTL); err == nil && d == 0 {
		return 0
	}
	return utils.ParseDuration(c.Sessions.TTL, 2*time.Hour)
}

// GetSweepInterval returns how often idle sessions are swept.
func (c *Config) GetSweepInterval() time.Duration {
	return utils.ParseDuration(c.Sessions.SweepInterval, 5*time.Minute)
}

// GetMaxUploadBytes returns the upload size limit in bytes.
func (c *Config) GetMaxUploadBytes() int64 {
	if c.Server.MaxUploadMB <= 0 {
		return 256 << 20
	}
	return c.Server.MaxUploadMB << 20
}
