// Package rest provides the HTTP operational endpoints: health probes and
// Prometheus metrics.
package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const probeTimeout = 2 * time.Second

// HealthHandler provides HTTP health check endpoints for the risk engine.
// Nil dependencies are skipped, so binaries that only use a subset of the
// infrastructure can reuse the handler.
type HealthHandler struct {
	logger    *slog.Logger
	pool      *pgxpool.Pool
	redis     *redis.Client
	metrics   http.Handler
	startTime time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, metrics http.Handler, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		metrics:   metrics,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers the operational endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "risk-engine",
		Uptime:  time.Since(h.startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

// Readyz handles readiness probe requests. It pings each wired dependency
// and reports 503 when any is unavailable.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			h.logger.Warn("readiness: database unavailable", slog.String("error", err.Error()))
			checks["database"] = "unavailable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("readiness: redis unavailable", slog.String("error", err.Error()))
			checks["redis"] = "unavailable"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	resp := ReadinessResponse{
		Status:  "ready",
		Service: "risk-engine",
		Checks:  checks,
	}
	code := http.StatusOK
	if !ready {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}
