package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finquest/internal/amqp"
	"finquest/internal/cli"
	apphttp "finquest/internal/http"
	"finquest/internal/log"
	"finquest/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	result := cli.InitBackend(context.Background(), cfg, logger)
	defer result.Close()

	// With a broker, sync requests are queued for finquest-worker.
	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	}

	app, err := cli.NewApp(cfg, result, publisher, logger)
	if err != nil {
		logger.Error("Failed to initialize services", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}, apphttp.Services{
		Forecast:    app.Forecast,
		Budgets:     app.Budgets,
		Sync:        app.Sync,
		Credentials: app.Credentials,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting finquest server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"forecast_source", cfg.ForecastSource,
		"plaid", cfg.PlaidConfigured(),
		"amqp", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
