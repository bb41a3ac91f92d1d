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

	"github.com/aurorapay/risk-engine/internal/application/usecase"
	"github.com/aurorapay/risk-engine/internal/domain/service"
	"github.com/aurorapay/risk-engine/internal/infrastructure/config"
	"github.com/aurorapay/risk-engine/internal/infrastructure/messaging"
	"github.com/aurorapay/risk-engine/internal/infrastructure/ml"
	"github.com/aurorapay/risk-engine/internal/infrastructure/postgres"
	redisinfra "github.com/aurorapay/risk-engine/internal/infrastructure/redis"
	"github.com/aurorapay/risk-engine/internal/infrastructure/reputation"
	grpcpresentation "github.com/aurorapay/risk-engine/internal/presentation/grpc"
	"github.com/aurorapay/risk-engine/internal/presentation/rest"
	"github.com/aurorapay/risk-engine/pkg/auth"
	"github.com/aurorapay/risk-engine/pkg/kafka"
	"github.com/aurorapay/risk-engine/pkg/observability"
	pkgpostgres "github.com/aurorapay/risk-engine/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskd: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Service: cfg.ServiceName,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	slog.SetDefault(logger)

	logger.Info("starting riskd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing. An empty OTLP endpoint leaves tracing disabled.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer shutdownTracer(ctx)
	}

	// Initialize metrics. The handler is served on the HTTP port alongside
	// the health probes.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		logger.Warn("failed to initialize metrics, continuing without /metrics", "error", err)
	} else {
		defer meterProvider.Shutdown(ctx)
	}

	// Database migrations and connection.
	if cfg.DB.AutoMigrate {
		if err := pkgpostgres.RunMigrations(cfg.DB.URL, cfg.DB.MigrationsDir); err != nil {
			logger.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

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

	// Redis holds the sliding transaction history window. A failed ping is
	// not fatal: the velocity rule errors per assessment and the engine
	// degrades those to the fail-safe verdict.
	redisClient := redisinfra.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed, velocity history will be unavailable", "error", err)
	} else {
		logger.Info("connected to redis")
	}
	pingCancel()

	// Kafka producer for assessment events.
	producer := kafka.NewProducer(kafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLEnabled,
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	})
	defer producer.Close()

	// Wire infrastructure adapters.
	assessmentRepo := postgres.NewAssessmentRepository(pool)
	profileStore := postgres.NewProfileStore(pool)
	historyStore := redisinfra.NewHistoryStore(redisClient, cfg.Redis.HistoryTTL, logger)
	eventPublisher := messaging.NewKafkaPublisher(producer, cfg.Kafka.AssessmentsTopic, logger)
	deviceReputation := reputation.NewStaticProvider(cfg.Reputation.DeviceScores)
	ipReputation := reputation.NewStaticProvider(cfg.Reputation.IPScores)
	modelClient := ml.NewLinearModel(logger)

	// Wire domain services.
	rules, err := service.NewRuleSet(
		service.NewVelocityRule(historyStore),
		service.NewAmountRule(),
		service.NewGeolocationRule(),
		service.NewTimePatternRule(),
		service.NewDeviceRule(),
	)
	if err != nil {
		logger.Error("failed to build rule set", "error", err)
		os.Exit(1)
	}

	engine, err := service.NewEngine(
		profileStore,
		modelClient,
		rules,
		service.NewBehaviorAnalyzer(),
		service.NewReputationAnalyzer(deviceReputation, ipReputation),
		service.EngineConfig{
			Weights: service.FusionWeights{
				Model:       cfg.Engine.WeightModel,
				Rules:       cfg.Engine.WeightRules,
				Behavior:    cfg.Engine.WeightBehavior,
				Reputation:  cfg.Engine.WeightReputation,
				Velocity:    cfg.Engine.WeightVelocity,
				Geolocation: cfg.Engine.WeightGeolocation,
			},
			SanctionedCountries: cfg.Engine.SanctionedCountries,
			EvaluationTimeout:   cfg.Engine.EvaluationTimeout,
		},
		logger,
	)
	if err != nil {
		logger.Error("failed to build decision engine", "error", err)
		os.Exit(1)
	}

	// Wire use cases.
	assessTransactionUC := usecase.NewAssessTransaction(assessmentRepo, eventPublisher, engine)
	getAssessmentUC := usecase.NewGetAssessment(assessmentRepo)
	listAssessmentsUC := usecase.NewListAssessments(assessmentRepo)

	// Token validation for the gRPC surface (validation-only: public key
	// preferred, secret as fallback).
	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.Auth.Issuer,
		Expiration: cfg.Auth.TokenTTL,
	}
	switch {
	case cfg.Auth.JWTPublicKeyFile != "":
		keyData, loadErr := auth.LoadKeyFromFile(cfg.Auth.JWTPublicKeyFile)
		if loadErr != nil {
			logger.Error("failed to load JWT public key file", "error", loadErr, "file", cfg.Auth.JWTPublicKeyFile)
			os.Exit(1)
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	case cfg.Auth.JWTSecret != "":
		jwtCfg.Secret = cfg.Auth.JWTSecret
	default:
		jwtCfg.Secret = "dev-secret" // Match e2e suite default
		logger.Info("JWT_SECRET not set, using development secret")
	}
	jwtService, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	// gRPC server.
	grpcHandler := grpcpresentation.NewRiskServiceHandler(assessTransactionUC, getAssessmentUC, listAssessmentsUC, logger)
	serverCfg := grpcpresentation.ServerConfig{
		Address:          cfg.GRPCAddress(),
		RateLimitRPS:     cfg.RateLimitRPS,
		EnableReflection: cfg.GRPCReflection,
	}
	if cfg.TLS.Enabled {
		serverCfg.TLSCertFile = cfg.TLS.CertFile
		serverCfg.TLSKeyFile = cfg.TLS.KeyFile
	}
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, serverCfg, jwtService, logger)
	if err != nil {
		logger.Error("failed to build gRPC server", "error", err)
		os.Exit(1)
	}

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

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("riskd started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down riskd")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("riskd stopped")
}
