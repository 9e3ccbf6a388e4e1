package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/quijoterun/tracker/internal/api"
	"github.com/quijoterun/tracker/internal/config"
	"github.com/quijoterun/tracker/internal/factory"
	"github.com/quijoterun/tracker/internal/web"
)

const (
	sweepInterval   = 10 * time.Minute
	janitorInterval = time.Minute
)

func main() {
	cfg := config.Load()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(factory.ConfigFrom(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	configured := app.Backend.Configured()
	if !configured {
		logger.Warn("backend not configured: set SUPABASE_URL and SUPABASE_ANON_KEY")
	}

	r, err := newRouter(cfg, app, configured, logger)
	if err != nil {
		logger.Error("failed to build router", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.HTTPAddress
	server := api.NewServer(r, serverConfig, logger)
	server.OnShutdown(app.HubManager.Close)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go app.Sessions.RunSweeper(ctx, sweepInterval, cfg.SessionIdle)
	go app.HubManager.RunJanitor(ctx, janitorInterval)

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("backend", cfg.Backend),
		slog.String("storage", cfg.StorageType))

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newRouter mounts the metrics endpoint, the JSON API and the web client
func newRouter(cfg config.Config, app *factory.App, configured bool, logger *slog.Logger) (*mux.Router, error) {
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Handle("/metrics", app.Metrics.Handler()).Methods("GET")

	api.Mount(r, api.RouterConfig{
		Logger:     logger,
		Clock:      app.Clock,
		Random:     app.Random,
		Sessions:   app.Sessions,
		Catalog:    app.Catalog,
		Plans:      app.Plans,
		Console:    app.Console,
		HubManager: app.HubManager,
		Configured: configured,
	})

	r.PathPrefix("/").Handler(web.NewRouter(web.RouterConfig{
		Logger:         logger,
		Clock:          app.Clock,
		Random:         app.Random,
		Sessions:       app.Sessions,
		Catalog:        app.Catalog,
		Plans:          app.Plans,
		Console:        app.Console,
		HubManager:     app.HubManager,
		Configured:     configured,
		CSRFKey:        csrfKey,
		TrustedOrigins: cfg.TrustedOrigins,
		SecureCookies:  cfg.SecureCookies,
	}))
	return r, nil
}
