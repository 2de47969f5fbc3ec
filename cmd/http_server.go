package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	authPostgres "github.com/frahmantamala/crew-timekeeping/internal/auth/postgres"
	"github.com/frahmantamala/crew-timekeeping/internal/core/events"
	"github.com/frahmantamala/crew-timekeeping/internal/notification"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
	permissionPostgres "github.com/frahmantamala/crew-timekeeping/internal/permission/postgres"
	"github.com/frahmantamala/crew-timekeeping/internal/timeclock"
	timeclockPostgres "github.com/frahmantamala/crew-timekeeping/internal/timeclock/postgres"
	"github.com/frahmantamala/crew-timekeeping/internal/timesheet"
	timesheetPostgres "github.com/frahmantamala/crew-timekeeping/internal/timesheet/postgres"
	"github.com/frahmantamala/crew-timekeeping/internal/transport/rest"
	"github.com/frahmantamala/crew-timekeeping/internal/transport/swagger"
	"github.com/frahmantamala/crew-timekeeping/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Router     *chi.Mux
	Logger     *slog.Logger
	Handlers   rest.Handlers
	Dispatcher *notification.Dispatcher
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, deps.Handlers, deps.Config.Server.AllowedOrigins, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Dispatcher.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	if err := swagger.ValidateSpec(context.Background(), config.Server.OpenAPIPath); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	// Event bus plus best-effort notification fan-out.
	eventBus := events.NewEventBus(lg)
	dispatcher := notification.NewDispatcher(notification.Config{
		Enabled:         config.Notification.Enabled,
		WebhookURL:      config.Notification.WebhookURL,
		DeliveryTimeout: config.Notification.DeliveryTimeout,
		MaxWorkers:      config.Notification.MaxWorkers,
		JobQueueSize:    config.Notification.JobQueueSize,
		WorkerPoolSize:  config.Notification.WorkerPoolSize,
	}, lg)
	dispatcher.RegisterHandlers(eventBus)

	// Repositories
	userRepo := authPostgres.NewUserRepository(gormDB)
	permissionRepo := permissionPostgres.NewPermissionRepository(gormDB)
	timeclockRepo := timeclockPostgres.NewTimeclockRepository(gormDB)
	timesheetRepo := timesheetPostgres.NewTimesheetRepository(gormDB)

	// Services
	authService := auth.NewService(userRepo, config.Security.AccessTokenSecret)
	resolver := permission.NewResolver(permissionRepo, lg)
	timeclockService := timeclock.NewService(timeclockRepo, resolver, lg)
	timesheetService := timesheet.NewService(timesheetRepo, resolver, timeclockService, eventBus, lg)

	return &Dependencies{
		Config: config,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Logger: lg,
		Handlers: rest.Handlers{
			Auth:       auth.NewHandler(authService),
			Timeclock:  timeclock.NewHandler(timeclockService),
			Timesheet:  timesheet.NewHandler(timesheetService),
			Permission: permission.NewHandler(resolver),
		},
		Dispatcher: dispatcher,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers GORM over the existing connection pool. TranslateError
// maps driver unique-violation errors to gorm.ErrDuplicatedKey, which the
// timesheet repository relies on.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
