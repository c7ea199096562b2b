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

	httpapi "github.com/aussiebroadwan/toolgate/internal/gateway/http"
	"github.com/aussiebroadwan/toolgate/internal/gateway/mcp"
	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/toolgate/pkg/jwtx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	signer *jwtx.Signer

	// Protocol plumbing
	sessions   *mcp.SessionRegistry
	dispatcher *mcp.Dispatcher

	// Services
	tokenService        *service.TokenService
	clientService       *service.ClientService
	authorizeService    *service.AuthorizeService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "toolgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// Tokens are volatile like the rest of the gateway state; a fresh
	// signing key per process is enough.
	signer, err := jwtx.NewEphemeralSigner("toolgate-" + BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing key: %w", err)
	}
	app.signer = signer

	app.initProtocol()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

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

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseDSN)
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

// initProtocol sets up the session registry, tool backend, and dispatcher.
func (app *Application) initProtocol() {
	app.sessions = mcp.NewSessionRegistry(app.cfg.SessionIdleTTL)

	var backend mcp.ToolBackend
	if app.cfg.BackendURL != "" {
		backend = mcp.NewHTTPBackend(app.cfg.BackendURL)
		app.logger.Info("using upstream tool backend", "endpoint", app.cfg.BackendURL)
	} else {
		backend = defaultBackend()
		app.logger.Info("using built-in tool catalog")
	}

	app.dispatcher = mcp.NewDispatcher(backend, mcp.ServerInfo{
		Name:    "toolgate",
		Version: BuildVersion,
	}, app.cfg.ToolCallTimeout)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer:    app.signer,
		Store:     app.db,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.AccessTokenTTL,
	}

	app.clientService = &service.ClientService{Store: app.db}
	app.authorizeService = &service.AuthorizeService{
		Store:             app.db,
		Clients:           app.clientService,
		CodeTTL:           app.cfg.CodeTTL,
		AllowAutoRegister: app.cfg.AllowAutoRegister,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.sessions,
		app.logger,
		app.cfg.SweepInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.TokenService = app.tokenService
	router.ClientService = app.clientService
	router.AuthorizeService = app.authorizeService
	router.Dispatcher = app.dispatcher
	router.Sessions = app.sessions
	router.RequireAuth = app.cfg.RequireAuth
	router.Heartbeat = app.cfg.Heartbeat
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
