package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentReminder)
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()
	m := metrics.New()

	exporter, closeExporter := cli.InitExporter(context.Background(), logger, cfg, m)
	defer closeExporter()

	processor := services.NewReminderProcessor(
		repo,
		services.NewRecurringBillService(repo, m),
		services.NewNotificationService(repo, m),
		repo,
		repo,
		exporter,
		m,
		cfg.ReminderConcurrency,
	)
	scheduler := worker.NewReminderScheduler(processor, cfg.ReminderInterval)

	logger.Info("Reminder processor configured",
		"interval", cfg.ReminderInterval,
		"concurrency", cfg.ReminderConcurrency,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Reminder scheduler did not stop cleanly", log.FieldError, err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start reminder scheduler", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Reminder-worker shutdown complete")
}
