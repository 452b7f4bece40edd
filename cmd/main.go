package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "neohub_monitor/docs"
	"neohub_monitor/internal/config"
	"neohub_monitor/internal/handlers"
	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/logger"
	"neohub_monitor/internal/metrics"
	"neohub_monitor/internal/notify"
	"neohub_monitor/internal/repository"
	"neohub_monitor/internal/repository/db"
	"neohub_monitor/internal/server"
	"neohub_monitor/internal/service"
)

// configPathEnv points at an explicit config file; unset searches ./configs.
const configPathEnv = "NEOHUB_CONFIG"

func main() {
	// load config.yml and NEOHUB_* overrides
	cfg, err := config.Load(os.Getenv(configPathEnv))
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})

	// open DB
	conn, err := openDB(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// outbound sinks
	notifier := notify.FromConfig(cfg.Notify, log)
	defer func() {
		if cerr := notifier.Close(); cerr != nil {
			log.Warnw("notify_close_failed", "err", cerr)
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m, err = metrics.FromConfig(cfg.Metrics)
		if err != nil {
			log.Warnw("statsd_unavailable", "addr", cfg.Metrics.StatsdAddr, "err", err)
		}
		defer func() { _ = m.Close() }()
	}

	// wire dependencies
	deps := service.Deps{
		Config:   cfg,
		Hub:      hub.NewClient(cfg.Hub.BaseURL, cfg.Hub.RequestTimeout),
		Notifier: notifier,
		Log:      log,
	}
	if m != nil {
		deps.Recorder = m
	}
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, deps)

	if err := services.EnsureOperator(cfg.Auth.Username, cfg.Auth.Password); err != nil {
		log.Fatalw("failed to seed operator account", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Poller.Restore(ctx); err != nil {
		log.Warnw("restore_failed", "err", err)
	}
	go services.Poller.Run(ctx, cfg.Poll.Interval)

	apiHandler := handlers.NewHandler(services, log)
	if m != nil {
		apiHandler = apiHandler.WithMetrics(m)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg.Server, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg config.DBConfig, log *logger.Logger) (*sql.DB, error) {
	path := cfg.Path
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "neohub.db")
		path = "neohub.db"
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg config.ServerConfig, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", cfg.Port)
		if err := srv.Run(cfg, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, cfg config.ServerConfig, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the poller
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
