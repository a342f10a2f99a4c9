package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/gatehouselabs/gatehouse/internal/gate/http"
	"github.com/gatehouselabs/gatehouse/internal/gate/service"
	"github.com/gatehouselabs/gatehouse/internal/gate/store"
	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/memory"
	redisstore "github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/redis"
	"github.com/gatehouselabs/gatehouse/internal/gate/store/drivers/sqlite"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	// tokenDigestPurpose binds the digest salt to this one use of the
	// master secret.
	tokenDigestPurpose = "token-digest"
)

// Application encapsulates the gate service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          store.Store
	redisClient *redis.Client

	// Services
	resolver            *service.SessionResolver
	guard               *service.BruteForceGuard
	limiter             *service.RequestRateLimiter
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gate-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gate service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gate service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gate service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes the validation, guard, and limiter services.
func (app *Application) initServices() error {
	master, err := cryptox.LoadMasterSecret(app.cfg.MasterSecretFile)
	if err != nil {
		return fmt.Errorf("failed to load master secret: %w", err)
	}
	salt, err := cryptox.DeriveSalt(master, tokenDigestPurpose)
	if err != nil {
		return fmt.Errorf("failed to derive digest salt: %w", err)
	}

	counters, blocks := app.initCounterStores()

	app.resolver = &service.SessionResolver{
		Store: app.db,
		Validator: &service.TokenValidator{
			Salt:         salt,
			PrefixLength: app.cfg.PrefixLength,
		},
		Timeout: app.cfg.ResolveTimeout,
	}

	app.guard = &service.BruteForceGuard{
		Counters:      counters,
		Blocks:        blocks,
		Logger:        app.logger,
		MaxAttempts:   app.cfg.MaxFailedAttempts,
		BlockDuration: app.cfg.BlockDuration,
	}

	app.limiter = &service.RequestRateLimiter{
		Counters: counters,
		Rules: []service.LimitRule{
			{Role: "admin", MaxRequests: app.cfg.AdminRequestLimit},
			{PathPrefix: "/v1/stream", MaxRequests: app.cfg.StreamRequestLimit},
		},
		DefaultLimit: app.cfg.DefaultRequestLimit,
		Window:       app.cfg.RateLimitWindow,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		counters,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	if app.cfg.RateLimitWindow > app.cfg.BlockDuration {
		app.housekeepingService.CounterWindow = app.cfg.RateLimitWindow
	} else {
		app.housekeepingService.CounterWindow = app.cfg.BlockDuration
	}

	return nil
}

// initCounterStores picks redis-backed counters when an address is
// configured, so multiple instances share windows, and falls back to
// the in-process implementation otherwise.
func (app *Application) initCounterStores() (store.KeyedCounterStore, store.BlockStore) {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("using in-process counter stores")
		return memory.NewCounterStore(), memory.NewBlockStore()
	}

	app.redisClient = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
	app.logger.Info("using redis counter stores", "addr", app.cfg.RedisAddr)
	return redisstore.NewCounterStore(app.redisClient), redisstore.NewBlockStore(app.redisClient)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Resolver = app.resolver
	router.Guard = app.guard
	router.Limiter = app.limiter
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
