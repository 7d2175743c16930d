// Package cli provides common CLI initialization utilities.
// This package consolidates the bootstrap shared by cmd/fintrack,
// cmd/finance-worker and cmd/reminder-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger installs the process logger for a binary. The level comes from
// LOG_LEVEL so it is known before the rest of the configuration is validated.
func SetupLogger(component string) *log.Logger {
	return log.Setup(os.Getenv("LOG_LEVEL"), component)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the repository, applying migrations.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitExporter builds the configured bill exporter. The returned exporter is a
// nil interface when export is disabled; the cleanup func is never nil.
func InitExporter(ctx context.Context, logger *log.Logger, cfg *config.Config, m *metrics.Metrics) (sheets.BillExporter, func()) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentExport), m).CreateExporter(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize bill exporter", log.FieldError, err, "backend", bcfg.Type.String())
		os.Exit(1)
	}
	cleanup := func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Exporter cleanup failed", log.FieldError, err)
		}
	}
	return res.Exporter, cleanup
}

// Thresholds maps the notification settings onto the event handler's.
func Thresholds(cfg *config.Config) services.EventThresholds {
	return services.EventThresholds{
		LargeExpense:       core.Money{Cents: cfg.LargeExpenseCents},
		BudgetAlertPercent: cfg.BudgetAlertPercent,
	}
}

// NewEventHandler wires the transaction event handler shared by the API
// (inline mode) and the finance worker.
func NewEventHandler(cfg *config.Config, repo *storage.SQLiteRepository, m *metrics.Metrics, exporter sheets.BillExporter) *services.EventHandler {
	notifications := services.NewNotificationService(repo, m)
	bills := services.NewRecurringBillService(repo, m)
	return services.NewEventHandler(repo, repo, notifications, bills, exporter, Thresholds(cfg))
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
