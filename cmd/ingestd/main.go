package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurorapay/risk-engine/internal/infrastructure/config"
	"github.com/aurorapay/risk-engine/internal/infrastructure/ingest"
	"github.com/aurorapay/risk-engine/internal/infrastructure/postgres"
	redisinfra "github.com/aurorapay/risk-engine/internal/infrastructure/redis"
	"github.com/aurorapay/risk-engine/internal/presentation/rest"
	"github.com/aurorapay/risk-engine/pkg/kafka"
	"github.com/aurorapay/risk-engine/pkg/observability"
	pkgpostgres "github.com/aurorapay/risk-engine/pkg/postgres"
)

// ingestd tails the settled-payments topic and folds each event into the
// per-user history window and device registry that the scoring rules read.
// It runs separately from riskd so a consumer stall never slows down the
// synchronous assessment path.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingestd: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Service: cfg.ServiceName,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	slog.SetDefault(logger)

	logger.Info("starting ingestd",
		"http_port", cfg.HTTPPort,
		"topic", cfg.Kafka.PaymentsTopic,
		"consumer_group", cfg.Kafka.ConsumerGroup,
	)

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Warn("failed to initialize metrics, continuing without /metrics", "error", err)
	} else {
		defer meterProvider.Shutdown(ctx)
	}

	// Database connection for the device registry.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, pkgpostgres.Config{
		DSN:      cfg.DB.URL,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Redis holds the sliding history window. A failed ping is not fatal:
	// uncommitted messages are redelivered once the store recovers.
	redisClient := redisinfra.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed, history writes will retry via redelivery", "error", err)
	} else {
		logger.Info("connected to redis")
	}
	pingCancel()

	historyStore := redisinfra.NewHistoryStore(redisClient, cfg.Redis.HistoryTTL, logger)
	profileStore := postgres.NewProfileStore(pool)
	worker := ingest.NewWorker(historyStore, profileStore, logger)

	consumer := kafka.NewConsumer(kafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLEnabled,
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	}, cfg.Kafka.PaymentsTopic, worker.Handle, logger)

	// HTTP server (health checks and metrics).
	healthHandler := rest.NewHealthHandler(pool, redisClient, metricsHandler, logger)
	httpMux := http.NewServeMux()
	healthHandler.RegisterRoutes(httpMux)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		if err := consumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("ingestd started",
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("worker error", "error", err)
	}

	logger.Info("shutting down ingestd")

	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("ingestd stopped")
}
