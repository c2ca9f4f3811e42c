package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/repository/csvrepo"
)

const testPassword = "s3cret-pass"

func newTestAuth(t *testing.T, ttl time.Duration) *AuthService {
	t.Helper()

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	path := filepath.Join(t.TempDir(), "users.csv")
	data := fmt.Sprintf("email,password_hash,role\nadmin@example.com,%s,admin\nuser@example.com,%s,standard\n", hash, hash)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write users file: %v", err)
	}

	return NewAuthService(csvrepo.NewUserRepository(path), "test-secret-key-for-jwt", ttl)
}

func TestAuthenticate(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	ctx := context.Background()

	token, err := auth.Authenticate(ctx, "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	principal, err := auth.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if principal.Email != "admin@example.com" {
		t.Errorf("Email: got %q, want %q", principal.Email, "admin@example.com")
	}
	if !principal.IsAdmin() {
		t.Error("expected admin principal")
	}
}

func TestAuthenticateFailsUniformly(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@example.com", "nope"},
		{"unknown user", "ghost@example.com", testPassword},
		{"empty credentials", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Authenticate(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestValidateTokenExpired(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	ctx := context.Background()

	// Issue directly with a negative TTL so the token is already stale.
	expired := NewAuthService(auth.users, "test-secret-key-for-jwt", -time.Hour)
	token, err := expired.IssueToken("admin@example.com", model.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := auth.ValidateToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t, time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := auth.ValidateToken(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: got %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestValidateTokenMissingClaims(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	now := time.Now()
	registered := jwt.RegisteredClaims{
		Subject:   "user@example.com",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		Issuer:    "admetra",
	}

	tests := []struct {
		name   string
		claims jwt.Claims
	}{
		{"no role claim", registered},
		{"no subject claim", tokenClaims{Role: string(model.RoleStandard)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString(auth.jwtSecret)
			if err != nil {
				t.Fatalf("sign token: %v", err)
			}
			if _, err := auth.ValidateToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("got %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	other := NewAuthService(auth.users, "a-different-secret", time.Hour)

	token, err := other.IssueToken("admin@example.com", model.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := auth.ValidateToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenDeletedUser(t *testing.T) {
	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	path := filepath.Join(t.TempDir(), "users.csv")
	data := fmt.Sprintf("email,password_hash,role\nadmin@example.com,%s,admin\n", hash)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write users file: %v", err)
	}

	auth := NewAuthService(csvrepo.NewUserRepository(path), "test-secret-key-for-jwt", time.Hour)
	token, err := auth.Authenticate(context.Background(), "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	// Drop the user after the token is issued.
	empty := "email,password_hash,role\n"
	if err := os.WriteFile(path, []byte(empty), 0o600); err != nil {
		t.Fatalf("rewrite users file: %v", err)
	}

	if _, err := auth.ValidateToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}
