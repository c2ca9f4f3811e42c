package sqlrepo

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Config holds database connection parameters, read once at startup.
type Config struct {
	Driver          string
	DSN             string
	MetricsTable    string
	UsersTable      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open creates a lazily-connected handle for the configured database. No
// connection is established here; an unreachable database surfaces on the
// first request (or ping), where it is logged and reported as a generic
// failure.
func Open(cfg Config) (*sqlx.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn := cfg.DSN
	if dialect.Name == "mysql" {
		dsn = withParseTime(dsn)
	}

	db, err := sqlx.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s database: %w", dialect.Name, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, dialect, nil
}

// withParseTime rewrites a MySQL DSN so DATE columns scan as time.Time.
// A DSN the driver cannot parse is returned unchanged; the subsequent open
// reports the real error.
func withParseTime(dsn string) string {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}
