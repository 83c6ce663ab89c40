package main

import (
	"context"
	"os"
	"time"

	"finquest/internal/amqp"
	"finquest/internal/cli"
	"finquest/internal/log"
	"finquest/internal/services"
	"finquest/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting finquest-worker")

	if !cfg.PlaidConfigured() {
		logger.Error("finquest-worker needs PLAID_CLIENT_ID and PLAID_SECRET")
		os.Exit(1)
	}

	result := cli.InitBackend(context.Background(), cfg, logger)
	defer result.Close()

	// The worker runs syncs itself, so it never publishes.
	app, err := cli.NewApp(cfg, result, nil, logger)
	if err != nil {
		logger.Error("Failed to initialize services", log.FieldError, err)
		os.Exit(1)
	}

	workerCfg := worker.Config{
		Syncer: app.Sync,
		Scheduler: services.NewScheduler(app.Sync, services.SchedulerConfig{
			Interval: cfg.SyncInterval,
		}, logger),
		MaxSnapshotAge: cfg.SyncInterval,
	}
	if tracker, ok := result.Backend.(worker.SyncTracker); ok {
		workerCfg.Tracker = tracker
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		workerCfg.Consumer = client
	} else {
		logger.Info("AMQP disabled, running the periodic scheduler only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := worker.NewSyncWorker(workerCfg, logger).Run(ctx); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
