package csvrepo

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
)

// MetricsRepository reads the metrics dataset from a CSV file. The file is
// opened per request; there is no cross-request caching.
type MetricsRepository struct {
	path string
}

// NewMetricsRepository creates a CSV-backed metrics repository for the given
// file path.
func NewMetricsRepository(path string) *MetricsRepository {
	return &MetricsRepository{path: path}
}

// CheckFile verifies the backing file exists and is readable. A missing
// metrics file is a fatal startup condition, not a per-request error.
func (r *MetricsRepository) CheckFile() error {
	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("metrics file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("metrics file %s is a directory", r.path)
	}
	return nil
}

// Ping satisfies the readiness probe contract by re-checking the file.
func (r *MetricsRepository) Ping(ctx context.Context) error {
	return r.CheckFile()
}

// GetMetrics streams the file through the date filter and returns at most
// f.Limit role-redacted rows starting at f.Offset. When no valid ordering is
// requested, scanning stops as soon as the page is full; with ordering, the
// filtered set is collected, sorted, then sliced.
func (r *MetricsRepository) GetMetrics(ctx context.Context, f *query.Filter, role model.Role) ([]map[string]interface{}, error) {
	cols := model.VisibleColumns(role)
	orderCol := f.OrderColumn(cols)

	sc, err := NewScanner(r.path)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	rows := make([]map[string]interface{}, 0, f.Limit)
	var collected []*model.MetricRecord
	skipped := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !inDateRange(rec.Date, f) {
			continue
		}

		if orderCol == "" {
			if skipped < f.Offset {
				skipped++
				continue
			}
			rows = append(rows, rec.Row(cols))
			if len(rows) >= f.Limit {
				break
			}
			continue
		}

		collected = append(collected, rec)
	}

	if orderCol == "" {
		return rows, nil
	}

	sortRecords(collected, orderCol, f.Descending)

	if f.Offset >= len(collected) {
		return rows, nil
	}
	end := f.Offset + f.Limit
	if end > len(collected) {
		end = len(collected)
	}
	for _, rec := range collected[f.Offset:end] {
		rows = append(rows, rec.Row(cols))
	}
	return rows, nil
}

func inDateRange(d time.Time, f *query.Filter) bool {
	if f.StartDate != nil && d.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && d.After(*f.EndDate) {
		return false
	}
	return true
}

// sortRecords orders records by the named column. The sort is stable so ties
// keep natural storage order.
func sortRecords(recs []*model.MetricRecord, col string, descending bool) {
	sort.SliceStable(recs, func(i, j int) bool {
		if descending {
			return recordLess(recs[j], recs[i], col)
		}
		return recordLess(recs[i], recs[j], col)
	})
}

func recordLess(a, b *model.MetricRecord, col string) bool {
	switch av := a.Value(col).(type) {
	case time.Time:
		return av.Before(b.Value(col).(time.Time))
	case int64:
		return av < b.Value(col).(int64)
	case float64:
		return av < b.Value(col).(float64)
	default:
		return false
	}
}
