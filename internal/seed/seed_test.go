package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/admetra/admetra/internal/model"
	"github.com/admetra/admetra/internal/query"
	"github.com/admetra/admetra/internal/repository/sqlrepo"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFixtures(t *testing.T) (metricsPath, usersPath string) {
	t.Helper()
	dir := t.TempDir()

	metricsPath = filepath.Join(dir, "metrics.csv")
	metrics := strings.Join([]string{
		"account_id,campaign_id,cost_micros,clicks,conversions,impressions,interactions,date",
		"1,100,500000,10,1,1000,12,2024-01-05",
		"1,101,250000,30,2,3000,35,2024-01-10",
		"2,102,750000,20,0,2000,22,2024-02-01",
		"2,103,100000,5,1,500,6,2023-12-31",
		"3,104,notanumber,bad,1,100,2,31-12-2023",
		"",
	}, "\n")
	if err := os.WriteFile(metricsPath, []byte(metrics), 0o600); err != nil {
		t.Fatalf("write metrics fixture: %v", err)
	}

	usersPath = filepath.Join(dir, "users.csv")
	users := "email,password_hash,role\nadmin@example.com,$2a$10$hashvalue,admin\nuser@example.com,$2a$10$hashvalue,standard\n"
	if err := os.WriteFile(usersPath, []byte(users), 0o600); err != nil {
		t.Fatalf("write users fixture: %v", err)
	}
	return metricsPath, usersPath
}

func TestSeedRun(t *testing.T) {
	db, dialect, err := sqlrepo.Open(sqlrepo.Config{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	metricsPath, usersPath := writeFixtures(t)
	ctx := context.Background()

	seeder := New(db, dialect, discardLogger())
	err = seeder.Run(ctx, Options{
		MetricsCSV: metricsPath,
		UsersCSV:   usersPath,
		BatchSize:  2, // force multiple batches plus a partial tail
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM metrics"); err != nil {
		t.Fatalf("count metrics: %v", err)
	}
	if count != 5 {
		t.Errorf("metrics rows: got %d, want 5", count)
	}

	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 2 {
		t.Errorf("users rows: got %d, want 2", count)
	}

	// The dirty row is coerced at load time, so the seeded table already
	// holds the fallback values.
	repo := sqlrepo.NewMetricsRepository(db, dialect, "")
	start := model.FallbackDate
	end := model.FallbackDate
	rows, err := repo.GetMetrics(ctx, &query.Filter{StartDate: &start, EndDate: &end, Limit: 10}, model.RoleAdmin)
	if err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("coerced rows: got %d, want 1", len(rows))
	}
	row := rows[0]
	if row[model.ColDate] != "2000-01-01" {
		t.Errorf("date: got %v", row[model.ColDate])
	}
	if row[model.ColClicks] != 0.0 {
		t.Errorf("clicks: got %v", row[model.ColClicks])
	}
	if row[model.ColCostMicros] != int64(0) {
		t.Errorf("cost_micros: got %v", row[model.ColCostMicros])
	}
}

func TestSeedRunDropExisting(t *testing.T) {
	db, dialect, err := sqlrepo.Open(sqlrepo.Config{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	metricsPath, _ := writeFixtures(t)
	ctx := context.Background()
	seeder := New(db, dialect, discardLogger())

	for i := 0; i < 2; i++ {
		if err := seeder.Run(ctx, Options{MetricsCSV: metricsPath, DropExisting: true}); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM metrics"); err != nil {
		t.Fatalf("count metrics: %v", err)
	}
	if count != 5 {
		t.Errorf("metrics rows after reseed: got %d, want 5", count)
	}
}

func TestSeedRunMissingFile(t *testing.T) {
	db, dialect, err := sqlrepo.Open(sqlrepo.Config{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	seeder := New(db, dialect, discardLogger())
	if err := seeder.Run(context.Background(), Options{MetricsCSV: "/nonexistent/metrics.csv"}); err == nil {
		t.Fatal("expected error for missing metrics file")
	}
}

func TestWaitForDBGivesUp(t *testing.T) {
	db, _, err := sqlrepo.Open(sqlrepo.Config{Driver: "mysql", DSN: "u:p@tcp(127.0.0.1:1)/nope", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	start := time.Now()
	err = WaitForDB(context.Background(), db, 2, 10*time.Millisecond, discardLogger())
	if err == nil {
		t.Fatal("expected error for unreachable database")
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected at least one backoff interval, took %v", elapsed)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestInsertSQLPlaceholders(t *testing.T) {
	seeder := New(nil, sqlrepo.Postgres, discardLogger())
	got := seeder.insertSQL("users", []string{"email", "role"}, 2)
	want := `INSERT INTO "users" ("email", "role") VALUES ($1, $2), ($3, $4)`
	if got != want {
		t.Errorf("insertSQL:\n got  %s\n want %s", got, want)
	}

	seeder = New(nil, sqlrepo.MySQL, discardLogger())
	got = seeder.insertSQL("users", []string{"email", "role"}, 1)
	want = "INSERT INTO `users` (`email`, `role`) VALUES (?, ?)"
	if got != want {
		t.Errorf("insertSQL:\n got  %s\n want %s", got, want)
	}
}
