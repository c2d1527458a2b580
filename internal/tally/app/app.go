package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallyhq/tally/internal/tally/cache"
	httpapi "github.com/tallyhq/tally/internal/tally/http"
	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/internal/tally/store"
	"github.com/tallyhq/tally/internal/tally/store/drivers/postgres"
	"github.com/tallyhq/tally/internal/tally/store/drivers/sqlite"
	"github.com/tallyhq/tally/pkg/cryptox"
	"github.com/tallyhq/tally/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the tally service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	cache cache.Categories

	tokenService        *service.TokenService
	sessionService      *service.SessionService
	ledgerService       *service.LedgerService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialised.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	app.cache, err = openCache(ctx, cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.cache.Close()
		_ = db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "tally",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// OpenStore opens the configured database and applies migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return db, nil
}

func openCache(ctx context.Context, cfg Config, logger *slog.Logger) (cache.Categories, error) {
	if cfg.RedisURL == "" {
		logger.Info("category cache disabled")
		return cache.Nop{}, nil
	}

	c, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CategoryCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize category cache: %w", err)
	}
	logger.Info("category cache enabled", "ttl", cfg.CategoryCacheTTL)
	return c, nil
}

// NewSessionService builds the token and session services on top of db.
func NewSessionService(cfg Config, db store.Store) (*service.SessionService, error) {
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	tokens, err := service.NewTokenService(db, []byte(cfg.AccessSecret), []byte(cfg.RefreshSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	tokens.AccessTTL = cfg.AccessTokenTTL
	tokens.RefreshTTL = cfg.RefreshTokenTTL

	return &service.SessionService{
		Store:               db,
		Tokens:              tokens,
		Hasher:              cryptox.PasswordHasher{Pepper: pepper},
		RotateRefreshTokens: cfg.RotateRefreshTokens,
	}, nil
}

func (app *Application) initServices() error {
	sessions, err := NewSessionService(app.cfg, app.db)
	if err != nil {
		return err
	}
	app.sessionService = sessions
	app.tokenService = sessions.Tokens

	app.ledgerService = &service.LedgerService{
		Store: app.db,
		Cache: app.cache,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.cache, app.logger)
	router.AllowedOrigins = app.cfg.CORSAllowedOrigins
	router.TokenService = app.tokenService
	router.SessionService = app.sessionService
	router.LedgerService = app.ledgerService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("tally starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops background work and closes the
// cache and database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tally...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.cache.Close(); err != nil {
		app.logger.Error("error closing cache", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("tally stopped")
	return nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }
