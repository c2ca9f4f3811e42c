package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage admetra configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default admetra.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")

	return cmd
}

const defaultConfigFile = `# Admetra configuration

server:
  host: 0.0.0.0
  port: 8080
  shutdown_timeout: 30s
  cors:
    origins:
      - "*"

auth:
  jwt_secret: ""   # Set via ADMETRA_AUTH_JWT_SECRET env var
  token_ttl: 15m
  login_rate_per_min: 20
  users_backend: csv   # csv or db

# CSV datasets
data:
  metrics_csv: data/metrics.csv
  users_csv: data/users.csv

# Relational backend (used by /metrics/db and the seed command)
db:
  driver: mysql    # mysql, postgres, or sqlite
  dsn: ""          # e.g. user:pass@tcp(localhost:3306)/admetra
  metrics_table: metrics
  users_table: users
  pool:
    max_open_conns: 10
    max_idle_conns: 5
    conn_max_lifetime: 30m

# Which backend the default /metrics endpoint serves
metrics:
  backend: csv     # csv or db

logging:
  level: info      # debug, info, warn, error
  format: text     # text or json
`

func runConfigInit(force bool) error {
	path := "admetra.yaml"

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigFile), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Edit the file to point at your datasets, then run 'admetra serve'.")
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	initConfig()

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", configFile)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "# Config file: (none found, using defaults)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The secret never reaches stdout.
	if cfg.Auth.JWTSecret != "" {
		cfg.Auth.JWTSecret = "<set>"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
