// Package seed loads the CSV datasets into a relational database so the
// database backend can answer the same queries as the file backend.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/repository/csvrepo"
	"github.com/admetra/admetra/internal/repository/sqlrepo"
)

// DefaultBatchSize is the number of rows per bulk INSERT.
const DefaultBatchSize = 500

// Options controls a seeding run.
type Options struct {
	MetricsCSV   string
	UsersCSV     string // optional; empty skips the users table
	MetricsTable string
	UsersTable   string
	BatchSize    int
	DropExisting bool
}

// Seeder copies CSV rows into database tables.
type Seeder struct {
	db      *sqlx.DB
	dialect sqlrepo.Dialect
	logger  *slog.Logger
}

func New(db *sqlx.DB, dialect sqlrepo.Dialect, logger *slog.Logger) *Seeder {
	return &Seeder{db: db, dialect: dialect, logger: logger}
}

// WaitForDB pings the database until it answers, waiting backoff between
// attempts. This is the only place in the program that retries a failed
// database operation; request paths fail fast instead.
func WaitForDB(ctx context.Context, db *sqlx.DB, attempts int, backoff time.Duration, logger *slog.Logger) error {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = db.PingContext(ctx)
		if lastErr == nil {
			return nil
		}
		logger.Warn("database not ready", "attempt", i, "of", attempts, "error", lastErr)
		if i < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return fmt.Errorf("database not reachable after %d attempts: %w", attempts, lastErr)
}

// Run creates the target tables and loads them from the CSV files.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	if opts.MetricsTable == "" {
		opts.MetricsTable = sqlrepo.DefaultMetricsTable
	}
	if opts.UsersTable == "" {
		opts.UsersTable = sqlrepo.DefaultUsersTable
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	if err := s.createMetricsTable(ctx, opts.MetricsTable, opts.DropExisting); err != nil {
		return err
	}
	n, err := s.loadMetrics(ctx, opts)
	if err != nil {
		return err
	}
	s.logger.Info("metrics loaded", "table", opts.MetricsTable, "rows", n)

	if err := s.createIndexes(ctx, opts.MetricsTable); err != nil {
		return err
	}

	if opts.UsersCSV != "" {
		if err := s.createUsersTable(ctx, opts.UsersTable, opts.DropExisting); err != nil {
			return err
		}
		un, err := s.loadUsers(ctx, opts)
		if err != nil {
			return err
		}
		s.logger.Info("users loaded", "table", opts.UsersTable, "rows", un)
	}

	return nil
}

// columnTypes returns the SQL types for date, integer, and float columns in
// the target dialect.
func (s *Seeder) columnTypes() (dateType, intType, floatType string) {
	switch s.dialect.Name {
	case "mysql":
		return "DATE", "BIGINT", "DOUBLE"
	case "postgres":
		return "DATE", "BIGINT", "DOUBLE PRECISION"
	default:
		return "TEXT", "INTEGER", "REAL"
	}
}

func (s *Seeder) createMetricsTable(ctx context.Context, table string, drop bool) error {
	q := s.dialect.Quote
	if drop {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+q(table)); err != nil {
			return fmt.Errorf("drop metrics table: %w", err)
		}
	}

	dateType, intType, floatType := s.columnTypes()
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL,
	%s %s NOT NULL
)`,
		q(table),
		q(model.ColDate), dateType,
		q(model.ColAccountID), intType,
		q(model.ColCampaignID), intType,
		q(model.ColClicks), floatType,
		q(model.ColConversions), floatType,
		q(model.ColImpressions), floatType,
		q(model.ColInteractions), floatType,
		q(model.ColCostMicros), intType,
	)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create metrics table: %w", err)
	}
	return nil
}

func (s *Seeder) createUsersTable(ctx context.Context, table string, drop bool) error {
	q := s.dialect.Quote
	if drop {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+q(table)); err != nil {
			return fmt.Errorf("drop users table: %w", err)
		}
	}

	textType := "TEXT"
	if s.dialect.Name == "mysql" {
		textType = "VARCHAR(255)"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	email %s NOT NULL,
	password_hash %s NOT NULL,
	role %s NOT NULL
)`, q(table), textType, textType, textType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// createIndexes speeds up the date-range filter and the common campaign
// grouping. Index creation failures on rerun are ignored.
func (s *Seeder) createIndexes(ctx context.Context, table string) error {
	q := s.dialect.Quote
	stmts := []string{
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)", q("idx_"+table+"_date"), q(table), q(model.ColDate)),
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)", q("idx_"+table+"_campaign"), q(table), q(model.ColCampaignID)),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.Debug("index creation skipped", "error", err)
		}
	}
	return nil
}

func (s *Seeder) loadMetrics(ctx context.Context, opts Options) (int, error) {
	scanner, err := csvrepo.NewScanner(opts.MetricsCSV)
	if err != nil {
		return 0, err
	}
	defer scanner.Close()

	insert := s.insertSQL(opts.MetricsTable, model.MetricColumns, opts.BatchSize)

	total := 0
	batch := make([]interface{}, 0, opts.BatchSize*len(model.MetricColumns))
	batchRows := 0

	flush := func() error {
		if batchRows == 0 {
			return nil
		}
		stmt := insert
		if batchRows < opts.BatchSize {
			stmt = s.insertSQL(opts.MetricsTable, model.MetricColumns, batchRows)
		}
		if _, err := s.db.ExecContext(ctx, stmt, batch...); err != nil {
			return fmt.Errorf("insert metrics batch: %w", err)
		}
		total += batchRows
		batch = batch[:0]
		batchRows = 0
		return nil
	}

	for {
		rec, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read metrics row: %w", err)
		}
		batch = append(batch,
			rec.Date.Format(model.DateLayout),
			rec.AccountID,
			rec.CampaignID,
			rec.Clicks,
			rec.Conversions,
			rec.Impressions,
			rec.Interactions,
			rec.CostMicros,
		)
		batchRows++
		if batchRows == opts.BatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func (s *Seeder) loadUsers(ctx context.Context, opts Options) (int, error) {
	users, err := csvrepo.NewUserRepository(opts.UsersCSV).ReadAll(ctx)
	if err != nil {
		return 0, err
	}

	cols := []string{"email", "password_hash", "role"}
	stmt := s.insertSQL(opts.UsersTable, cols, 1)
	for i, u := range users {
		if _, err := s.db.ExecContext(ctx, stmt, u.Email, u.PasswordHash, string(u.Role)); err != nil {
			return i, fmt.Errorf("insert user %s: %w", u.Email, err)
		}
	}
	return len(users), nil
}

// insertSQL builds a multi-row INSERT statement with dialect placeholders.
func (s *Seeder) insertSQL(table string, cols []string, rows int) string {
	q := s.dialect.Quote

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = q(c)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(q(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c := range cols {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.dialect.Placeholder(n))
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}
