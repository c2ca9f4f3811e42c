package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/admetra/admetra/internal/repository"
	"github.com/admetra/admetra/internal/repository/csvrepo"
	"github.com/admetra/admetra/internal/repository/sqlrepo"
	"github.com/admetra/admetra/internal/server"
	"github.com/admetra/admetra/internal/service"
)

func newServeCmd() *cobra.Command {
	var (
		port    int
		host    string
		backend string
		dev     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the metrics API server",
		Long:  "Start the HTTP server that exposes the login and metrics endpoints.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().StringVar(&backend, "backend", "", "Default metrics backend (csv or db)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("metrics.backend", cmd.Flags().Lookup("backend"))

	return cmd
}

func runServe(dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dev {
		cfg.Logging.Level = "debug"
	}
	logger := newLogger(cfg)

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not set (use ADMETRA_AUTH_JWT_SECRET or the config file)")
	}

	// The file backends are verified at startup; a missing dataset is a
	// configuration error, not something to discover on the first request.
	metricsCSV := csvrepo.NewMetricsRepository(cfg.Data.MetricsCSV)
	if err := metricsCSV.CheckFile(); err != nil {
		return err
	}
	usersCSV := csvrepo.NewUserRepository(cfg.Data.UsersCSV)

	backends := server.Backends{
		CSV: metricsCSV,
		ReadyChecks: map[string]server.ReadyChecker{
			"csv": metricsCSV,
		},
	}

	needDB := cfg.Metrics.Backend == "db" || cfg.Auth.UsersBackend == "db" || cfg.DB.DSN != ""
	var usersRepo repository.UserRepository = usersCSV
	if needDB {
		db, dialect, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		dbRepo := sqlrepo.NewMetricsRepository(db, dialect, cfg.DB.MetricsTable)
		backends.DB = dbRepo
		backends.ReadyChecks["db"] = dbRepo
		logger.Info("database backend configured", "driver", dialect.Name)

		if cfg.Auth.UsersBackend == "db" {
			usersRepo = sqlrepo.NewUserRepository(db, dialect, cfg.DB.UsersTable)
		}
	}

	switch cfg.Metrics.Backend {
	case "db":
		if backends.DB == nil {
			return fmt.Errorf("metrics.backend is \"db\" but db.dsn is not set")
		}
		backends.Default = backends.DB
	default:
		backends.Default = backends.CSV
	}

	if cfg.Auth.UsersBackend == "csv" {
		if err := usersCSV.CheckFile(); err != nil {
			return err
		}
	}

	tokenTTL, err := cfg.TokenTTL()
	if err != nil {
		return err
	}
	authSvc := service.NewAuthService(usersRepo, cfg.Auth.JWTSecret, tokenTTL)

	shutdownTimeout, err := cfg.ShutdownTimeout()
	if err != nil {
		return err
	}
	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     cfg.Server.CORS.Origins,
		LoginRatePerMin: cfg.Auth.LoginRatePerMin,
	}

	srv := server.New(srvCfg, backends, authSvc, logger)

	logger.Info("admetra starting",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"metrics_backend", cfg.Metrics.Backend,
		"users_backend", cfg.Auth.UsersBackend,
	)
	return srv.ListenAndServe()
}
