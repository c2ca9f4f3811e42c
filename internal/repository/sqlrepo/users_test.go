package sqlrepo

import (
	"context"
	"errors"
	"testing"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/repository"
)

func TestUserRepositoryGetByEmail(t *testing.T) {
	db, dialect := newTestDB(t)

	schema := `CREATE TABLE users (
		email TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create users table: %v", err)
	}
	seed := [][]interface{}{
		{"admin@example.com", "$2a$10$abcdefghijklmnopqrstuv", "admin"},
		{"user@example.com", "$2a$10$vutsrqponmlkjihgfedcba", "standard"},
		{"odd@example.com", "$2a$10$zzzzzzzzzzzzzzzzzzzzzz", "superuser"},
	}
	for _, r := range seed {
		if _, err := db.Exec("INSERT INTO users VALUES (?, ?, ?)", r...); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}

	repo := NewUserRepository(db, dialect, "")
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		u, err := repo.GetByEmail(ctx, "admin@example.com")
		if err != nil {
			t.Fatalf("GetByEmail: %v", err)
		}
		if u.Role != model.RoleAdmin {
			t.Errorf("role: got %q, want %q", u.Role, model.RoleAdmin)
		}
		if u.PasswordHash == "" {
			t.Error("password hash not loaded")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		if !errors.Is(err, repository.ErrUserNotFound) {
			t.Fatalf("got %v, want ErrUserNotFound", err)
		}
	})

	t.Run("unknown role falls back to standard", func(t *testing.T) {
		u, err := repo.GetByEmail(ctx, "odd@example.com")
		if err != nil {
			t.Fatalf("GetByEmail: %v", err)
		}
		if u.Role != model.RoleStandard {
			t.Errorf("role: got %q, want %q", u.Role, model.RoleStandard)
		}
	})
}
