package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/gravekeeper/core/internal/adapters/kvstore"
	"github.com/gravekeeper/core/internal/adapters/repository"
	"github.com/gravekeeper/core/internal/application/services"
	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/infrastructure/config"
	"github.com/gravekeeper/core/internal/infrastructure/database"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/infrastructure/metrics"
	"github.com/gravekeeper/core/internal/infrastructure/server"
	"github.com/gravekeeper/core/internal/ports"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Gravekeeper API server",
		Long:  "Start the API server together with the periodic overdue sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, database.MigrateUp, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, database.MigrateDown, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			version, dirty, err := database.MigrationVersion(db)
			if err != nil {
				return fmt.Errorf("failed to get migration version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\nDirty: %t\n", version, dirty)
			return nil
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create accounts for cemetery staff and administrators",
	}

	var req ports.CreateUserRequest
	var role string

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = entities.UserRole(strings.ToLower(role))
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}
			return createUser(cmd, req)
		},
	}

	createUserCmd.Flags().StringVar(&req.Email, "email", "", "User email (required)")
	createUserCmd.Flags().StringVar(&req.Password, "password", "", "User password, at least 8 characters (required)")
	createUserCmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	createUserCmd.Flags().StringVar(&role, "role", string(entities.UserRoleStaff), "User role (admin, staff, visitor)")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
	_ = createUserCmd.MarkFlagRequired("name")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewSweepCommand runs a single overdue sweep against the task store
func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark tasks past their deadline as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMaintenance(cmd.Context(), func(ctx context.Context, svc *services.MaintenanceService, cfg *config.Config) error {
				result, err := svc.SweepOverdue(ctx)
				if err != nil {
					return fmt.Errorf("sweep failed: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Checked %d task(s)\n", result.Checked)
				if len(result.MarkedOverdue) == 0 {
					fmt.Fprintln(out, "Nothing became overdue")
					return nil
				}
				fmt.Fprintf(out, "Marked overdue: %s\n", strings.Join(result.MarkedOverdue, ", "))
				return nil
			})
		},
	}
}

// NewAlertsCommand prints the dashboard alert banners for one user
func NewAlertsCommand() *cobra.Command {
	var (
		userID string
		role   string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show overdue, upcoming and assigned maintenance tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer := entities.Viewer{UserID: userID, Role: entities.UserRole(strings.ToLower(role))}
			if !viewer.Role.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			return withMaintenance(cmd.Context(), func(ctx context.Context, svc *services.MaintenanceService, cfg *config.Config) error {
				window := days
				if window <= 0 {
					window = cfg.Maintenance.UpcomingDays
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderAlerts(svc.Alerts(viewer, window), window))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id whose assigned tasks are listed")
	cmd.Flags().StringVar(&role, "role", string(entities.UserRoleAdmin), "Role used to decide task visibility")
	cmd.Flags().IntVar(&days, "days", 0, "Upcoming window in days (defaults to maintenance.upcoming_days)")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Gravekeeper version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Gravekeeper Core %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", Commit)
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Errorw("Failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	if applied, err := database.MigrateUp(db); err != nil {
		appLogger.Errorw("Failed to apply migrations", "error", err)
		return err
	} else if applied {
		appLogger.Infow("Database migrations applied")
	}

	store, err := kvstore.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to open task store", "driver", cfg.Store.Driver, "error", err)
		return err
	}
	defer store.Close()

	srv, err := server.New(cfg, db, store, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize server", "error", err)
		return err
	}

	appLogger.Infow("Starting Gravekeeper API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("Server failed", "error", err)
			return err
		}
		return nil
	case <-sigCtx.Done():
	}

	appLogger.Infow("Shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
		return err
	}
	appLogger.Infow("Server stopped")
	return nil
}

func runMigration(cmd *cobra.Command, run func(*database.DB) (bool, error), direction string) error {
	_, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	changed, err := run(db)
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}

	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
	return nil
}

func createUser(cmd *cobra.Command, req ports.CreateUserRequest) error {
	cfg, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.MigrateUp(db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	authService := services.NewAuthService(repository.NewUserRepository(db.DB), cfg.JWT, logger.NewNop())
	user, err := authService.CreateUser(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "User created successfully:")
	fmt.Fprintf(out, "  ID: %s\n", user.ID)
	fmt.Fprintf(out, "  Email: %s\n", user.Email)
	fmt.Fprintf(out, "  Name: %s\n", user.Name)
	fmt.Fprintf(out, "  Role: %s\n", user.Role)
	return nil
}

func openDatabase() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

// withMaintenance loads the task collection from the configured store and
// hands it to fn. Grave inventory is not consulted.
func withMaintenance(ctx context.Context, fn func(context.Context, *services.MaintenanceService, *config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	store, err := kvstore.Open(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open task store: %w", err)
	}
	defer store.Close()

	svc, err := server.NewMaintenance(ctx, cfg, store, nil, metrics.New(), appLogger)
	if err != nil {
		return err
	}
	return fn(ctx, svc, cfg)
}
