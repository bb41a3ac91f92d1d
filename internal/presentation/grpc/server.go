package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/aurorapay/risk-engine/pkg/auth"
	"github.com/aurorapay/risk-engine/pkg/tlsutil"
)

// ServerConfig carries the listen and transport settings for the gRPC server.
type ServerConfig struct {
	Address          string
	TLSCertFile      string
	TLSKeyFile       string
	RateLimitRPS     int // per-tenant requests per second, 0 disables limiting
	EnableReflection bool
}

// Server wraps the gRPC server with risk service handlers.
type Server struct {
	address    string
	grpcServer *grpc.Server
	handler    *RiskServiceHandler
	logger     *slog.Logger
}

// NewServer creates a new gRPC server for the risk service.
func NewServer(handler *RiskServiceHandler, cfg ServerConfig, jwtService *auth.JWTService, logger *slog.Logger) (*Server, error) {
	// Add auth interceptor, skipping health check methods.
	authInterceptor := auth.UnaryAuthInterceptor(jwtService, []string{
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
	})

	interceptors := []grpc.UnaryServerInterceptor{authInterceptor}
	if cfg.RateLimitRPS > 0 {
		interceptors = append(interceptors, UnaryRateLimitInterceptor(NewRateLimiter(cfg.RateLimitRPS)))
		logger.Info("per-tenant rate limiting enabled", slog.Int("rps", cfg.RateLimitRPS))
	}

	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(interceptors...),
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		creds, err := tlsutil.ServerTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", slog.String("cert", cfg.TLSCertFile))
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	grpcServer := grpc.NewServer(serverOpts...)

	// Register health check service.
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("risk-engine", healthpb.HealthCheckResponse_SERVING)

	// Register the RiskService handler.
	RegisterRiskServiceServer(grpcServer, handler)

	if cfg.EnableReflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		grpcServer: grpcServer,
		handler:    handler,
		logger:     logger,
		address:    cfg.Address,
	}, nil
}

// Start begins listening and serving gRPC requests.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.logger.Info("gRPC server starting",
		slog.String("address", s.address),
	)

	return s.grpcServer.Serve(listener)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.grpcServer.GracefulStop()
}
