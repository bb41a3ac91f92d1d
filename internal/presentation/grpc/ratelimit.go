package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/aurorapay/risk-engine/pkg/auth"
)

// RateLimiter implements a token bucket per tenant so one noisy integrator
// cannot starve the assessment path for everyone else.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[uuid.UUID]*bucket
	maxTokens  float64
	refillRate float64 // tokens per second
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows rps requests per second
// per tenant. Buckets start full, so a tenant can burst up to rps requests.
func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[uuid.UUID]*bucket),
		maxTokens:  float64(rps),
		refillRate: float64(rps),
	}
}

// Allow reports whether a single request from the tenant is permitted.
// It consumes one token if available.
func (rl *RateLimiter) Allow(tenantID uuid.UUID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[tenantID]
	if !ok {
		b = &bucket{tokens: rl.maxTokens, lastRefill: now}
		rl.buckets[tenantID] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * rl.refillRate
	if b.tokens > rl.maxTokens {
		b.tokens = rl.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// UnaryRateLimitInterceptor applies per-tenant rate limiting to unary calls.
// It must run after the auth interceptor; calls without claims (health
// probes and other skipped methods) pass through unlimited.
func UnaryRateLimitInterceptor(limiter *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		claims, ok := auth.ClaimsFromContext(ctx)
		if !ok {
			return handler(ctx, req)
		}
		if !limiter.Allow(claims.TenantID) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
