// Package cli provides common CLI initialization utilities shared by the
// fintrack commands: logging, .env loading, configuration and the wiring of
// backend, record store, query engine and change events.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/services"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = applog.ComponentCLI
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App bundles everything a command needs.
type App struct {
	Config *config.Config
	Logger *applog.Logger
	Store  *services.RecordStore
	Query  *query.Engine
	Events *events.Client // nil when AMQP is not configured

	backend *backend.BackendResult
}

// Open builds the backend selected by cfg, connects the optional event
// publisher and loads the record store.
func Open(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	if err := cfg.EnsureDataDirs(); err != nil {
		return nil, err
	}
	defaults, err := cfg.DefaultSettings()
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Query:   query.NewEngine(cfg.PatternCacheSize),
		backend: res,
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithDefaultSettings(defaults),
	}
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			logger.Debug("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			app.Events = client
			opts = append(opts, services.WithNotifier(client))
		}
	}

	store, err := services.Open(ctx, res.Store, opts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open record store: %w", err)
	}
	app.Store = store
	return app, nil
}

// Close releases the event connection and the backend.
func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	errs = append(errs, a.backend.Close())
	return errors.Join(errs...)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("Shutdown signal received")
		}
	}()
	return ctx, stop
}
