// Package config defines the application configuration file format and
// its defaults. Values referenced as ${VAR_NAME} in the file are expanded
// from the environment before parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level admetra configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Data    DataConfig    `yaml:"data"`
	DB      DBConfig      `yaml:"db"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// AuthConfig controls authentication settings.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTL        string `yaml:"token_ttl"`
	LoginRatePerMin int    `yaml:"login_rate_per_min"`
	// UsersBackend selects where credentials live: "csv" or "db".
	UsersBackend string `yaml:"users_backend"`
}

// DataConfig points at the CSV datasets.
type DataConfig struct {
	MetricsCSV string `yaml:"metrics_csv"`
	UsersCSV   string `yaml:"users_csv"`
}

// DBConfig controls the relational backend.
type DBConfig struct {
	Driver       string     `yaml:"driver"`
	DSN          string     `yaml:"dsn"`
	MetricsTable string     `yaml:"metrics_table"`
	UsersTable   string     `yaml:"users_table"`
	Pool         PoolConfig `yaml:"pool"`
}

// PoolConfig controls the database connection pool.
type PoolConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// MetricsConfig selects which backend the default metrics endpoint serves.
type MetricsConfig struct {
	// Backend is "csv" or "db".
	Backend string `yaml:"backend"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			CORS: CORSConfig{
				Origins: []string{"*"},
			},
		},
		Auth: AuthConfig{
			TokenTTL:        "15m",
			LoginRatePerMin: 20,
			UsersBackend:    "csv",
		},
		Data: DataConfig{
			MetricsCSV: "data/metrics.csv",
			UsersCSV:   "data/users.csv",
		},
		DB: DBConfig{
			Driver:       "mysql",
			MetricsTable: "metrics",
			UsersTable:   "users",
			Pool: PoolConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    5,
				ConnMaxLifetime: "30m",
			},
		},
		Metrics: MetricsConfig{
			Backend: "csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFile reads and parses a YAML configuration file over the defaults.
// Environment variables referenced as ${VAR_NAME} are expanded first.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot be acted on.
func (c *Config) Validate() error {
	switch c.Metrics.Backend {
	case "csv", "db":
	default:
		return fmt.Errorf("metrics.backend must be \"csv\" or \"db\", got %q", c.Metrics.Backend)
	}
	switch c.Auth.UsersBackend {
	case "csv", "db":
	default:
		return fmt.Errorf("auth.users_backend must be \"csv\" or \"db\", got %q", c.Auth.UsersBackend)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := c.TokenTTL(); err != nil {
		return fmt.Errorf("auth.token_ttl: %w", err)
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	return nil
}

// TokenTTL parses the configured token lifetime.
func (c *Config) TokenTTL() (time.Duration, error) {
	return time.ParseDuration(c.Auth.TokenTTL)
}

// ShutdownTimeout parses the configured shutdown drain window.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

// ConnMaxLifetimeDuration parses the configured pool connection lifetime.
// A bad value falls back to zero, which disables the limit.
func (p PoolConfig) ConnMaxLifetimeDuration() time.Duration {
	d, err := time.ParseDuration(p.ConnMaxLifetime)
	if err != nil {
		return 0
	}
	return d
}

// Write marshals the configuration to a YAML file.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
