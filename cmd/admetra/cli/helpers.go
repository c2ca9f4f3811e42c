package cli

import (
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	"github.com/admetra/admetra/internal/config"
	"github.com/admetra/admetra/internal/repository/sqlrepo"
)

// loadConfig builds the effective configuration: file values over defaults,
// then ADMETRA_* environment variables over both.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if path := viper.ConfigFileUsed(); path != "" {
		c, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies viper-managed values (environment variables and
// bound flags) onto the configuration.
func applyOverrides(cfg *config.Config) {
	if v := viper.GetString("auth.jwt_secret"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := viper.GetString("auth.users_backend"); v != "" {
		cfg.Auth.UsersBackend = v
	}
	if v := viper.GetInt("server.port"); v != 0 {
		cfg.Server.Port = v
	}
	if v := viper.GetString("server.host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetString("metrics.backend"); v != "" {
		cfg.Metrics.Backend = v
	}
	if v := viper.GetString("db.driver"); v != "" {
		cfg.DB.Driver = v
	}
	if v := viper.GetString("db.dsn"); v != "" {
		cfg.DB.DSN = v
	}
	if v := viper.GetString("data.metrics_csv"); v != "" {
		cfg.Data.MetricsCSV = v
	}
	if v := viper.GetString("data.users_csv"); v != "" {
		cfg.Data.UsersCSV = v
	}
	if v := viper.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		cfg.Logging.Format = v
	}
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openDB opens the configured relational backend.
func openDB(cfg *config.Config) (*sqlx.DB, sqlrepo.Dialect, error) {
	return sqlrepo.Open(sqlrepo.Config{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.DSN,
		MetricsTable:    cfg.DB.MetricsTable,
		UsersTable:      cfg.DB.UsersTable,
		MaxOpenConns:    cfg.DB.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.DB.Pool.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.Pool.ConnMaxLifetimeDuration(),
	})
}
