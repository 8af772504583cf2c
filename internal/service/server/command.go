package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"

	"github.com/Coolhgg/relife-scheduler/internal/api/rest"
	"github.com/Coolhgg/relife-scheduler/internal/config"
	"github.com/Coolhgg/relife-scheduler/internal/logger"
	"github.com/Coolhgg/relife-scheduler/internal/notify"
	"github.com/Coolhgg/relife-scheduler/internal/optimize"
	"github.com/Coolhgg/relife-scheduler/internal/repository/alarms"
	"github.com/Coolhgg/relife-scheduler/internal/repository/settings"
	"github.com/Coolhgg/relife-scheduler/internal/service/bulk"
	"github.com/Coolhgg/relife-scheduler/internal/service/scheduler"
	"github.com/Coolhgg/relife-scheduler/internal/service/snapshot"
)

// Options controls the scheduler-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP API.
	ListenAddress string
	// Notifier overrides the notification backend; the in-process one is used
	// when nil.
	Notifier notify.Scheduler
}

const (
	// shutdownTimeout bounds the HTTP server drain on shutdown.
	shutdownTimeout = 10 * time.Second

	// readHeaderTimeout bounds slow-header clients.
	readHeaderTimeout = 5 * time.Second
)

// Run starts the scheduling loop and the HTTP API and blocks until the
// context is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "scheduler-server")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	listenAddress := cfg.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	store, closeStore, err := alarms.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeStore(); err != nil {
			logger.ErrorKV(ctx, "Failed to close alarm store", "error", err)
		}
	}()

	settingsRepo := settings.NewRepository(settings.NewFileKV(cfg.SettingsFile))
	pipeline := optimize.New()

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewMemoryScheduler()
	}

	svc, err := scheduler.NewService(ctx, store, settingsRepo, notifier, pipeline, cfg.TickPeriod)
	if err != nil {
		return fmt.Errorf("initialise scheduling loop: %w", err)
	}

	// Re-sync notifications before serving so alarms survive restarts.
	if err = svc.RefreshAll(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to refresh notifications", "error", err)
	}

	go func() {
		_ = svc.Run(ctx)
	}()

	api := rest.NewServer(store, bulk.NewEngine(store), snapshot.NewEngine(store, settingsRepo), svc)

	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           handlers.LoggingHandler(os.Stdout, api.Router()),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.InfoKV(ctx, "Scheduler server listening",
		"listen_address", listenAddress, "storage_backend", cfg.StorageBackend, "tick_period", cfg.TickPeriod.String())

	// Done channel is closed after Shutdown finishes to ensure we block until
	// the server fully drains before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorKV(ctx, "HTTP server shutdown failed", "error", err)
		}

		close(done)
	}()

	if err = httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}
