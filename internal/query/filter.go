// Package query provides the validated filter model and identifier
// sanitization for the metrics API layer. Filters are constructed once per
// request from query-string input; bounds are enforced at construction, not
// at query time.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/admetra/admetra/internal/model"
)

const (
	// DefaultLimit is the page size applied when the client sends none.
	DefaultLimit = 100
	// MaxLimit caps the page size a client may request.
	MaxLimit = 1000
)

// ValidationError describes a rejected query parameter. It is raised at the
// transport boundary before any query logic runs.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Message)
}

// Filter is a validated description of a bounded, optionally date-ranged and
// sorted metrics query. An OrderBy value that does not name a column in the
// caller's visible column set is silently ignored downstream, never an error.
type Filter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
	OrderBy    string
	Descending bool
}

// ParseFilter builds a Filter from request query parameters. Out-of-range
// limit/offset and unparseable dates are rejected with a ValidationError;
// everything else is carried as-is.
func ParseFilter(values url.Values) (*Filter, error) {
	f := &Filter{Limit: DefaultLimit}

	if s := values.Get("start_date"); s != "" {
		t, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return nil, &ValidationError{Param: "start_date", Message: "expected YYYY-MM-DD"}
		}
		f.StartDate = &t
	}
	if s := values.Get("end_date"); s != "" {
		t, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return nil, &ValidationError{Param: "end_date", Message: "expected YYYY-MM-DD"}
		}
		f.EndDate = &t
	}

	if s := values.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &ValidationError{Param: "limit", Message: "expected an integer"}
		}
		if n < 1 || n > MaxLimit {
			return nil, &ValidationError{Param: "limit", Message: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
		}
		f.Limit = n
	}

	if s := values.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, &ValidationError{Param: "offset", Message: "expected an integer"}
		}
		if n < 0 {
			return nil, &ValidationError{Param: "offset", Message: "must be >= 0"}
		}
		f.Offset = n
	}

	f.OrderBy = values.Get("order_by")
	if s := values.Get("descending"); s != "" {
		f.Descending = parseBool(s)
	}

	f.Clamp()
	return f, nil
}

// parseBool reads truthy query-string values. Unrecognized input counts as
// false rather than an error, matching the silent-ignore contract of order_by.
func parseBool(s string) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	switch strings.ToLower(s) {
	case "yes", "on", "y":
		return true
	}
	return false
}

// Clamp enforces limit/offset bounds on the filter itself so downstream
// backends can assume already-bounded inputs.
func (f *Filter) Clamp() {
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// OrderColumn returns OrderBy when it names one of cols, and "" otherwise.
// An unrecognized or redacted column leaves rows in natural storage order.
func (f *Filter) OrderColumn(cols []string) string {
	if f.OrderBy == "" {
		return ""
	}
	for _, c := range cols {
		if c == f.OrderBy {
			return c
		}
	}
	return ""
}
