// Package repository defines the storage contracts shared by the CSV and
// SQL backends. Both implementations of each interface must produce an
// identical external shape so the serving layer can select one by
// configuration.
package repository

import (
	"context"
	"errors"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
)

// ErrUserNotFound is returned by credential lookups when no record matches.
// Absence of a match is an expected outcome, not a storage failure.
var ErrUserNotFound = errors.New("user not found")

// MetricsRepository produces a bounded, sorted, role-redacted slice of the
// metrics dataset: at most filter.Limit rows starting at filter.Offset, with
// the cost column structurally absent for non-admin callers.
type MetricsRepository interface {
	GetMetrics(ctx context.Context, f *query.Filter, role model.Role) ([]map[string]interface{}, error)
}

// UserRepository is a read-only credential store. Lookup is the single
// exposed operation; records are loaded at lookup time, never cached.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}
