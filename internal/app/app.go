package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/videohub/backend/internal/cache"
	"github.com/videohub/backend/internal/config"
	"github.com/videohub/backend/internal/db"
	"github.com/videohub/backend/internal/handlers"
	"github.com/videohub/backend/internal/httpserver"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/repositories"
)

// Run bootstraps the VideoHub backend application.
func Run(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "videohub",
		Short:         "VideoHub catalog backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("expected command: serve, migrate, or seed-admin")
		},
	}

	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedAdminCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and static front-end server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down [steps]|version]",
		Short: "Apply or inspect the database schema",
		Long: `Apply or inspect the embedded schema migrations.

Examples:
  videohub migrate up
  videohub migrate down 1
  videohub migrate version`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, steps, err := parseMigrateArgs(args)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMigrations(cmd, cfg, direction, steps)
		},
	}
}

func newSeedAdminCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create or promote an admin account",
		Long: `Create an admin account, or promote and reset an existing one.

New videos are attributed to the earliest admin, so at least one must exist
before the catalog accepts uploads.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := db.Connect(ctx, databaseOptions(cfg))
			if err != nil {
				return err
			}
			defer pool.Close()

			users := repositories.NewPostgresUserRepository(pool)
			user, created, err := seedAdmin(ctx, users, email, password, cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}

			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (%s)\n", verb, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func databaseOptions(cfg config.Config) db.Options {
	return db.Options{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		AcquireTimeout: cfg.Database.AcquireTimeout,
		IdleTimeout:    cfg.Database.IdleTimeout,
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(cfg.Server.LogLevel, os.Stdout)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, databaseOptions(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	cacheClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := cacheClient.Close(); err != nil {
			logger.Warn("close redis client", "error", err)
		}
	}()

	deps, err := buildDependencies(ctx, cfg, pool, cacheClient, logger)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Port, handlers.NewRouter(deps))
	logger.Info("starting videohub",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"strictVideoAuth", cfg.Server.StrictVideoAuth,
		"trustProxy", cfg.Server.TrustProxy,
		"thumbnails", deps.Thumbnails != nil,
	)

	return srv.Run(ctx)
}

func parseMigrateArgs(args []string) (string, int, error) {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	switch direction {
	case "up", "version":
		if len(args) > 1 {
			return "", 0, fmt.Errorf("migrate %s takes no further arguments", direction)
		}
		return direction, 0, nil
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return "", 0, fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		return direction, steps, nil
	default:
		return "", 0, fmt.Errorf("unknown migrate command %q", direction)
	}
}

func runMigrations(cmd *cobra.Command, cfg config.Config, direction string, steps int) error {
	migrator, err := db.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			slog.Warn("close migrator", "error", err)
		}
	}()

	out := cmd.OutOrStdout()
	switch direction {
	case "up":
		changed, err := migrator.Up()
		if err != nil {
			return err
		}
		if !changed {
			fmt.Fprintln(out, "no migrations to apply")
			return nil
		}
	case "down":
		if err := migrator.Down(steps); err != nil {
			return err
		}
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d (dirty=%t)\n", version, dirty)
	return nil
}
