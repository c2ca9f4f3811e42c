package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/admetra/admetra/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		batchSize    int
		drop         bool
		skipUsers    bool
		attempts     int
		backoff      time.Duration
		waitDisabled bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the CSV datasets into the configured database",
		Long: `Create the metrics and users tables in the configured database and load
them from the CSV files, so the database backend answers the same queries
as the file backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(batchSize, drop, skipUsers, attempts, backoff, waitDisabled)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", seed.DefaultBatchSize, "Rows per bulk insert")
	cmd.Flags().BoolVar(&drop, "drop", false, "Drop and recreate existing tables")
	cmd.Flags().BoolVar(&skipUsers, "skip-users", false, "Do not load the users table")
	cmd.Flags().IntVar(&attempts, "wait-attempts", 10, "Connection attempts before giving up")
	cmd.Flags().DurationVar(&backoff, "wait-backoff", 3*time.Second, "Delay between connection attempts")
	cmd.Flags().BoolVar(&waitDisabled, "no-wait", false, "Fail immediately if the database is unreachable")

	return cmd
}

func runSeed(batchSize int, drop, skipUsers bool, attempts int, backoff time.Duration, waitDisabled bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.DB.DSN == "" {
		return fmt.Errorf("db.dsn is not set")
	}

	db, dialect, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if waitDisabled {
		attempts = 1
	}
	if err := seed.WaitForDB(ctx, db, attempts, backoff, logger); err != nil {
		return err
	}

	opts := seed.Options{
		MetricsCSV:   cfg.Data.MetricsCSV,
		MetricsTable: cfg.DB.MetricsTable,
		UsersTable:   cfg.DB.UsersTable,
		BatchSize:    batchSize,
		DropExisting: drop,
	}
	if !skipUsers {
		opts.UsersCSV = cfg.Data.UsersCSV
	}

	if err := seed.New(db, dialect, logger).Run(ctx, opts); err != nil {
		return err
	}

	logger.Info("seeding complete", "driver", dialect.Name)
	return nil
}
