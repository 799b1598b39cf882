package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/sessionauth/internal/auth/http"
	"github.com/aussiebroadwan/sessionauth/internal/auth/metrics"
	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/sessionauth/pkg/cryptox"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
)

const (
	// BuildVersion is overridden at build time via -ldflags "-X".
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	hasher   *cryptox.Hasher
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Services
	tokens              *service.TokenStore
	authService         *service.AuthService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger for cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "sessionauth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
// The store is opened and migrated; nothing listens until Run.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = NewLogger(cfg)
	}
	app := &Application{cfg: cfg, logger: logger}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Auth exposes the authentication core.
func (app *Application) Auth() *service.AuthService { return app.authService }

// Users exposes the account administration service.
func (app *Application) Users() *service.UserService { return app.userService }

// Handler is the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// PurgeExpiredTokens runs one housekeeping pass immediately, whether or
// not periodic housekeeping is enabled.
func (app *Application) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	hk := app.housekeepingService
	if hk == nil {
		hk = service.NewHousekeepingService(app.tokens, app.logger, 0, app.metrics)
	}
	return hk.RunOnce(ctx)
}

// Close releases the store without starting or stopping the server. It is
// for short-lived commands that never call Run.
func (app *Application) Close() error { return app.db.Close() }

// Run starts the application and blocks until ctx is cancelled, a shutdown
// signal arrives or the server fails.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		_ = app.db.Close()
		return oops.Code("LISTEN_FAILED").With("addr", app.server.Addr).Wrap(err)
	}
	return app.serve(ctx, ln)
}

func (app *Application) serve(ctx context.Context, ln net.Listener) error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("auth service starting",
		"addr", ln.Addr().String(),
		"version", BuildVersion,
		"store_backend", app.cfg.StoreBackend,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.Serve(ln)
	}()

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		_ = app.Shutdown()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "cause", context.Cause(ctx))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// OpenStore connects to the configured backend. Migrations are not applied.
// Every call on the returned store is bounded by cfg.StoreTimeout.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)

	switch cfg.StoreBackend {
	case BackendSQLite:
		st, err = sqlite.NewStore(cfg.DatabaseFile)
	case BackendPostgres:
		st, err = postgres.Connect(ctx, cfg.DatabaseURL, postgres.DefaultConnectOptions)
	case BackendMemory:
		st = memory.NewStore()
	default:
		err = oops.Code("CONFIG_INVALID").With("store_backend", cfg.StoreBackend).Errorf("unknown store backend")
	}
	if err != nil {
		return nil, err
	}

	return store.WithTimeout(st, cfg.StoreTimeout), nil
}

// initDatabase opens the store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	if app.cfg.StoreBackend == BackendMemory {
		app.logger.Warn("memory store in use, accounts and sessions are lost on exit")
	}
	app.logger.Info("database migrations applied successfully", "store_backend", app.cfg.StoreBackend)
	return nil
}

// NewHasher builds the password hasher for cfg, creating the pepper file on
// first use.
func NewHasher(cfg Config) (*cryptox.Hasher, error) {
	pepper, err := cryptox.LoadOrGeneratePepper(cfg.PepperFile)
	if err != nil {
		return nil, oops.Code("PEPPER_LOAD_FAILED").With("path", cfg.PepperFile).Wrap(err)
	}
	return cryptox.NewHasher(cryptox.HasherConfig{
		Iterations: cfg.HashIterations,
		Pepper:     pepper,
	})
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	hasher, err := NewHasher(app.cfg)
	if err != nil {
		return err
	}
	app.hasher = hasher

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	app.tokens = service.NewTokenStore(app.db, app.cfg.TokenTTL, service.SystemClock)

	app.authService, err = service.NewAuthService(
		service.AuthConfig{ActiveOnRegister: app.cfg.ActiveOnRegister},
		service.NewUserStore(app.db, service.SystemClock),
		app.tokens,
		hasher,
		nil,
		app.metrics,
	)
	if err != nil {
		return err
	}

	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: hasher,
		Clock:  service.SystemClock,
	}

	if app.cfg.HousekeepingInterval > 0 {
		app.housekeepingService = service.NewHousekeepingService(
			app.tokens,
			app.logger,
			app.cfg.HousekeepingInterval,
			app.metrics,
		)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Auth:               app.authService,
		Store:              app.db,
		Logger:             app.logger,
		BuildVersion:       BuildVersion,
		EnableAPI:          app.cfg.EnableAPI,
		APIBaseURL:         app.cfg.APIBaseURL,
		CORSAllowedOrigins: app.cfg.CORSAllowedOrigins,
		Gatherer:           app.registry,
	})
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
