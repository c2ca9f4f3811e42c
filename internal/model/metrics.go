package model

import (
	"strconv"
	"strings"
	"time"
)

// Column names of the metrics dataset.
const (
	ColDate         = "date"
	ColAccountID    = "account_id"
	ColCampaignID   = "campaign_id"
	ColClicks       = "clicks"
	ColConversions  = "conversions"
	ColImpressions  = "impressions"
	ColInteractions = "interactions"
	ColCostMicros   = "cost_micros"
)

// MetricColumns lists every column of the metrics dataset in storage order.
// ColCostMicros is visible to admins only.
var MetricColumns = []string{
	ColDate,
	ColAccountID,
	ColCampaignID,
	ColClicks,
	ColConversions,
	ColImpressions,
	ColInteractions,
	ColCostMicros,
}

// VisibleColumns returns the column set the given role may read. The cost
// column is removed entirely for non-admins, not nulled out.
func VisibleColumns(role Role) []string {
	if role == RoleAdmin {
		return append([]string(nil), MetricColumns...)
	}
	cols := make([]string, 0, len(MetricColumns)-1)
	for _, c := range MetricColumns {
		if c != ColCostMicros {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsMetricColumn reports whether name is a column of the metrics dataset.
func IsMetricColumn(name string) bool {
	for _, c := range MetricColumns {
		if c == name {
			return true
		}
	}
	return false
}

// DateLayout is the wire and storage format for metric dates.
const DateLayout = "2006-01-02"

// FallbackDate substitutes for metric dates that fail to parse.
var FallbackDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// MetricRecord is one row of the advertising-metrics dataset.
type MetricRecord struct {
	Date         time.Time
	AccountID    int64
	CampaignID   int64
	Clicks       float64
	Conversions  float64
	Impressions  float64
	Interactions float64
	CostMicros   int64
}

// Value returns the typed value of the named column. Unknown columns yield nil.
func (m *MetricRecord) Value(col string) interface{} {
	switch col {
	case ColDate:
		return m.Date
	case ColAccountID:
		return m.AccountID
	case ColCampaignID:
		return m.CampaignID
	case ColClicks:
		return m.Clicks
	case ColConversions:
		return m.Conversions
	case ColImpressions:
		return m.Impressions
	case ColInteractions:
		return m.Interactions
	case ColCostMicros:
		return m.CostMicros
	default:
		return nil
	}
}

// Row projects the record onto the given column set. Dates are rendered in
// DateLayout so rows serialize the same regardless of backend.
func (m *MetricRecord) Row(cols []string) map[string]interface{} {
	row := make(map[string]interface{}, len(cols))
	for _, c := range cols {
		if c == ColDate {
			row[c] = m.Date.Format(DateLayout)
			continue
		}
		row[c] = m.Value(c)
	}
	return row
}

// CoerceDate parses s as a metric date. Values that fail to parse are
// replaced by FallbackDate rather than rejected; dirty input never drops a
// row.
func CoerceDate(s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return FallbackDate
	}
	return t
}

// CoerceFloat parses s as a float64, substituting 0 on failure.
func CoerceFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// CoerceInt parses s as an int64, substituting 0 on failure.
func CoerceInt(s string) int64 {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n
	}
	// Some exports write integral columns as floats ("123.0").
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0
	}
	return int64(f)
}
