package csvrepo

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/repository"
)

// UserRepository looks up credential records in a CSV file with columns
// email, password_hash, role. The file is scanned per lookup, never cached.
type UserRepository struct {
	path string
}

// NewUserRepository creates a CSV-backed credential store for the given
// file path.
func NewUserRepository(path string) *UserRepository {
	return &UserRepository{path: path}
}

// CheckFile verifies the backing file exists. A missing credential file is a
// fatal startup condition.
func (r *UserRepository) CheckFile() error {
	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("users file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("users file %s is a directory", r.path)
	}
	return nil
}

// Ping satisfies the readiness probe contract by re-checking the file.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.CheckFile()
}

// GetByEmail scans the file for a matching record. A missing match returns
// repository.ErrUserNotFound, never a storage error.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var found *model.User
	err := scanUsers(ctx, r.path, func(u *model.User) bool {
		if u.Email == email {
			found = u
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, repository.ErrUserNotFound
	}
	return found, nil
}

// ReadAll returns every credential record in the file, in file order.
// Used by the seeding pipeline to copy users into a database table.
func (r *UserRepository) ReadAll(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := scanUsers(ctx, r.path, func(u *model.User) bool {
		users = append(users, u)
		return true
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// scanUsers streams credential rows through fn until fn returns false or the
// file is exhausted. Rows with an unrecognized role fall back to standard.
func scanUsers(ctx context.Context, path string, fn func(*model.User) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read users header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	emailIdx, ok := idx["email"]
	if !ok {
		return fmt.Errorf("users file %s: missing email column", path)
	}
	hashIdx, ok := idx["password_hash"]
	if !ok {
		// Older exports used a bare "password" header.
		hashIdx, ok = idx["password"]
		if !ok {
			return fmt.Errorf("users file %s: missing password_hash column", path)
		}
	}
	roleIdx, ok := idx["role"]
	if !ok {
		return fmt.Errorf("users file %s: missing role column", path)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read users row: %w", err)
		}
		if emailIdx >= len(fields) || fields[emailIdx] == "" {
			continue
		}

		u := &model.User{Email: fields[emailIdx]}
		if hashIdx < len(fields) {
			u.PasswordHash = fields[hashIdx]
		}
		if roleIdx < len(fields) {
			u.Role = model.Role(fields[roleIdx])
		}
		if !u.Role.Valid() {
			u.Role = model.RoleStandard
		}
		if !fn(u) {
			return nil
		}
	}
}
