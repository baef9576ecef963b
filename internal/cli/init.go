// Package cli wires configuration, logging and the ledger backend into the
// command-line driver.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"expenses/internal/backend"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/services"

	"github.com/joho/godotenv"
)

// SetupLogger builds the logger described by cfg and sets it as the default
// logger.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logCfg := applog.DefaultConfig()
	if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level = level
	}
	logCfg.Format = cfg.LogFormat
	logCfg.Component = applog.ComponentCLI

	logger := applog.New(logCfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment, applies a
// non-empty dbPath override and validates the result. Validation failures
// are logged under the config component before being returned.
func LoadAndValidateConfig(logger *slog.Logger, dbPath string) (*config.Config, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.LedgerDBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		fields := applog.NewFields().
			WithComponent(applog.ComponentConfig).
			WithOperation(applog.OpStartup).
			WithErrorType(applog.ErrorTypeValidation).
			WithError(err)
		logger.Error("Configuration validation failed", fields.ToSlice()...)
		return nil, err
	}
	return cfg, nil
}

// OpenTracker acquires the configured backend and returns a session that
// releases it on Close.
func OpenTracker(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*services.Tracker, error) {
	factory := backend.NewFactory(logger.Logger)
	res, err := factory.CreateBackend(ctx, backend.ConfigFromAppConfig(cfg))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open ledger",
			applog.FieldOperation, applog.OpStartup,
			applog.FieldBackend, cfg.DataBackend,
			applog.FieldError, err)
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	return services.NewTracker(res.Backend, services.TrackerConfig{
		Suppressed:  cfg.NoDescriptionCategories,
		RecentLimit: cfg.RecentExpensesLimit,
		Logger:      logger,
		Closer:      res.Cleanup,
	}), nil
}

// HandleInterrupt runs cleanup and exits when SIGINT or SIGTERM arrives. The
// returned stop function removes the handler.
func HandleInterrupt(logger *applog.Logger, cleanup func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown, "signal", sig.String())
			if cleanup != nil {
				cleanup()
			}
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
