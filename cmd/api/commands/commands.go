package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/database"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/server"
)

// Build information, set with -ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type rootOptions struct {
	configFile string
}

// NewRootCommand assembles the taskmaster CLI
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "taskmaster",
		Short:         "TaskMaster task tracker",
		Long:          "TaskMaster is a multi-user task tracker: tasks organised by categories and tags behind a REST API and a small web interface.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: config.yaml in . or ./config)")

	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewMigrateCommand(opts))
	rootCmd.AddCommand(NewUserCommand(opts))
	rootCmd.AddCommand(NewSeedCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// runtimeEnv holds what every command needs once configuration is loaded
type runtimeEnv struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
}

func bootstrap(opts *rootOptions) (*runtimeEnv, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		_ = appLogger.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &runtimeEnv{cfg: cfg, logger: appLogger, db: db}, nil
}

func (env *runtimeEnv) Close() {
	if err := env.db.Close(); err != nil {
		env.logger.Warnw("Failed to close database", "error", err)
	}
	_ = env.logger.Close()
}

// NewServeCommand creates the serve command
func NewServeCommand(opts *rootOptions) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskMaster API server",
		Long:  "Start the HTTP server with the REST API, web pages, health checks and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			if migrateFirst {
				if err := env.db.MigrateUp(cmd.Context()); err != nil && !errors.Is(err, database.ErrNoChange) {
					return fmt.Errorf("migration failed: %w", err)
				}
			}

			return runServer(cmd.Context(), env)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServer(ctx context.Context, env *runtimeEnv) error {
	srv, err := server.New(env.cfg, env.db, env.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env.logger.Infow("Starting TaskMaster API server",
		"address", env.cfg.Server.Address(),
		"environment", env.cfg.App.Environment,
		"database", env.db.Driver(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(env.cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	env.logger.Infow("Server stopped")
	return nil
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand(opts *rootOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, opts, true)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, opts, false)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			version, dirty, err := env.db.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
			return nil
		},
	})

	return migrateCmd
}

func runMigration(cmd *cobra.Command, opts *rootOptions, up bool) error {
	env, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	direction := "down"
	if up {
		direction = "up"
		err = env.db.MigrateUp(cmd.Context())
	} else {
		err = env.db.MigrateDown(cmd.Context())
	}

	if errors.Is(err, database.ErrNoChange) {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
	return nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskMaster version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "TaskMaster %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", GitCommit)
		},
	}
}

// commandTimeout bounds the one-shot administrative commands
const commandTimeout = 2 * time.Minute
