// Package csvrepo implements the credential store and metrics query engine
// over flat CSV files. Metric reads are lazy: rows stream through the date
// filter and, when no ordering is requested, scanning stops as soon as the
// requested page is full.
package csvrepo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/admetra/admetra/internal/model"
)

// Scanner streams metric records from a CSV file. Malformed cells are
// coerced to fixed defaults rather than rejecting the row; dirty input
// never fails a read.
type Scanner struct {
	f   *os.File
	r   *csv.Reader
	idx map[string]int
}

// NewScanner opens the metrics file and reads its header row. Column order
// in the file is irrelevant; fields are located by header name.
func NewScanner(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metrics file: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read metrics header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	return &Scanner{f: f, r: r, idx: idx}, nil
}

// Next returns the next record, or io.EOF when the file is exhausted.
func (s *Scanner) Next() (*model.MetricRecord, error) {
	fields, err := s.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read metrics row: %w", err)
	}

	get := func(col string) string {
		i, ok := s.idx[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	return &model.MetricRecord{
		Date:         model.CoerceDate(get(model.ColDate)),
		AccountID:    model.CoerceInt(get(model.ColAccountID)),
		CampaignID:   model.CoerceInt(get(model.ColCampaignID)),
		Clicks:       model.CoerceFloat(get(model.ColClicks)),
		Conversions:  model.CoerceFloat(get(model.ColConversions)),
		Impressions:  model.CoerceFloat(get(model.ColImpressions)),
		Interactions: model.CoerceFloat(get(model.ColInteractions)),
		CostMicros:   model.CoerceInt(get(model.ColCostMicros)),
	}, nil
}

// Close releases the underlying file handle.
func (s *Scanner) Close() error {
	return s.f.Close()
}
