package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
	"github.com/admetra/admetra/internal/repository"
)

// DefaultUsersTable is the table name used when none is configured.
const DefaultUsersTable = "users"

// UserRepository looks up credential records in a relational table with
// columns email, password_hash, role.
type UserRepository struct {
	db      *sqlx.DB
	dialect Dialect
	table   string
}

// NewUserRepository creates a SQL-backed credential store. An empty table
// name selects DefaultUsersTable.
func NewUserRepository(db *sqlx.DB, dialect Dialect, table string) *UserRepository {
	if table == "" {
		table = DefaultUsersTable
	}
	return &UserRepository{db: db, dialect: dialect, table: table}
}

// GetByEmail fetches a single credential record. A missing match returns
// repository.ErrUserNotFound, never a storage error.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := query.ValidateIdentifier(r.table); err != nil {
		return nil, fmt.Errorf("users table: %w", err)
	}

	q := fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE %s = %s LIMIT 1",
		r.dialect.Quote("email"),
		r.dialect.Quote("password_hash"),
		r.dialect.Quote("role"),
		r.dialect.Quote(r.table),
		r.dialect.Quote("email"),
		r.dialect.Placeholder(1),
	)

	var u model.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	if !u.Role.Valid() {
		u.Role = model.RoleStandard
	}
	return &u, nil
}
