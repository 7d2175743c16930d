package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	m := metrics.New()

	exporter, closeExporter := cli.InitExporter(context.Background(), logger, cfg, m)
	events := cli.NewEventHandler(cfg, repo, m, exporter)

	// Without a broker every event is handled inline before the request returns.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, m)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, handling events inline", log.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - transaction events handled inline")
	}

	lru := cache.NewLRUCache[core.MonthOverview](cfg.DashboardCacheSize, cfg.DashboardCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(lru)
	cacheManager.StartCleanup(cfg.DashboardCacheTTL)

	overviews := cache.NewInstrumented[core.MonthOverview]("dashboard", lru, m)
	dashboard := services.NewDashboardService(repo, services.NewBudgetService(repo, nil), overviews)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:       services.NewTransactionService(repo, publisher, events, dashboard, m),
		Categories:         services.NewCategoryService(repo, dashboard),
		Budgets:            services.NewBudgetService(repo, dashboard),
		Notifications:      services.NewNotificationService(repo, m),
		Bills:              services.NewRecurringBillService(repo, m),
		Dashboard:          dashboard,
		Ready:              repo,
		Metrics:            m,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
		closeExporter()
		repo.Close()
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"export_backend", cfg.ExportBackend,
		"amqp_enabled", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
