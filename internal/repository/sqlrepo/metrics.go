package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
)

// DefaultMetricsTable is the table name used when none is configured.
const DefaultMetricsTable = "metrics"

// MetricsRepository reads the metrics dataset from a relational table. The
// database schema is trusted to enforce column types; no per-cell coercion
// happens here.
type MetricsRepository struct {
	db      *sqlx.DB
	dialect Dialect
	table   string
}

// NewMetricsRepository creates a SQL-backed metrics repository. An empty
// table name selects DefaultMetricsTable.
func NewMetricsRepository(db *sqlx.DB, dialect Dialect, table string) *MetricsRepository {
	if table == "" {
		table = DefaultMetricsTable
	}
	return &MetricsRepository{db: db, dialect: dialect, table: table}
}

// Ping verifies the database is reachable.
func (r *MetricsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetMetrics executes a parameterized SELECT honoring the shared query
// contract: role-scoped column set, inclusive date bounds, whitelisted
// ordering, offset/limit pagination.
func (r *MetricsRepository) GetMetrics(ctx context.Context, f *query.Filter, role model.Role) ([]map[string]interface{}, error) {
	cols := model.VisibleColumns(role)

	sqlStr, args, err := r.buildSelect(f, cols)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	out := make([]map[string]interface{}, 0, f.Limit)
	for rows.Next() {
		rec, err := scanRecord(rows, cols)
		if err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		out = append(out, rec.Row(cols))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics rows: %w", err)
	}
	return out, nil
}

// buildSelect assembles the SELECT statement for the given filter and column
// set. Every interpolated identifier comes from the metrics schema whitelist
// and is validated and quoted regardless.
func (r *MetricsRepository) buildSelect(f *query.Filter, cols []string) (string, []interface{}, error) {
	if err := query.ValidateIdentifier(r.table); err != nil {
		return "", nil, fmt.Errorf("metrics table: %w", err)
	}

	var b strings.Builder
	var args []interface{}
	ph := func() string {
		return r.dialect.Placeholder(len(args) + 1)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		if err := query.ValidateIdentifier(c); err != nil {
			return "", nil, fmt.Errorf("metrics column: %w", err)
		}
		quoted[i] = r.dialect.Quote(c)
	}

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(" FROM ")
	b.WriteString(r.dialect.Quote(r.table))

	var conds []string
	if f.StartDate != nil {
		args = append(args, f.StartDate.Format(model.DateLayout))
		conds = append(conds, r.dialect.Quote(model.ColDate)+" >= "+r.dialect.Placeholder(len(args)))
	}
	if f.EndDate != nil {
		args = append(args, f.EndDate.Format(model.DateLayout))
		conds = append(conds, r.dialect.Quote(model.ColDate)+" <= "+r.dialect.Placeholder(len(args)))
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if orderCol := f.OrderColumn(cols); orderCol != "" {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(r.dialect.Quote(orderCol))
		b.WriteString(dir)
	}

	b.WriteString(" LIMIT ")
	b.WriteString(ph())
	args = append(args, f.Limit)

	if f.Offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(ph())
		args = append(args, f.Offset)
	}

	return b.String(), args, nil
}

// dateValue scans a date column across driver representations: native
// time.Time (mysql with parseTime, pgx) or textual dates (sqlite).
type dateValue struct {
	t time.Time
}

func (d *dateValue) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.t = v
	case []byte:
		d.t = model.CoerceDate(string(v))
	case string:
		d.t = model.CoerceDate(v)
	case nil:
		d.t = model.FallbackDate
	default:
		return fmt.Errorf("unsupported date value of type %T", src)
	}
	return nil
}

// scanRecord scans the current row into a typed record so both backends
// serialize identically.
func scanRecord(rows *sql.Rows, cols []string) (*model.MetricRecord, error) {
	dests := make([]interface{}, len(cols))
	for i, c := range cols {
		switch c {
		case model.ColDate:
			dests[i] = &dateValue{}
		case model.ColAccountID, model.ColCampaignID, model.ColCostMicros:
			dests[i] = &sql.NullInt64{}
		default:
			dests[i] = &sql.NullFloat64{}
		}
	}

	if err := rows.Scan(dests...); err != nil {
		return nil, err
	}

	rec := &model.MetricRecord{}
	for i, c := range cols {
		switch d := dests[i].(type) {
		case *dateValue:
			rec.Date = d.t
		case *sql.NullInt64:
			switch c {
			case model.ColAccountID:
				rec.AccountID = d.Int64
			case model.ColCampaignID:
				rec.CampaignID = d.Int64
			case model.ColCostMicros:
				rec.CostMicros = d.Int64
			}
		case *sql.NullFloat64:
			switch c {
			case model.ColClicks:
				rec.Clicks = d.Float64
			case model.ColConversions:
				rec.Conversions = d.Float64
			case model.ColImpressions:
				rec.Impressions = d.Float64
			case model.ColInteractions:
				rec.Interactions = d.Float64
			}
		}
	}
	return rec, nil
}
