// Package redis implements the transaction history port on Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
)

// NewClient creates a Redis client.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

var _ port.HistoryProvider = (*HistoryStore)(nil)

// HistoryStore keeps each user's recent transactions in a sorted set scored
// by occurrence time, so velocity checks read a trailing window with a
// single range query. Entries past the retention TTL are trimmed on write.
type HistoryStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewHistoryStore creates a Redis-backed history store. The TTL bounds
// retention and must exceed the longest window callers query.
func NewHistoryStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &HistoryStore{client: client, logger: logger, ttl: ttl}
}

type historyEntry struct {
	TransactionID     uuid.UUID       `json:"transaction_id"`
	UserID            uuid.UUID       `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Country           string          `json:"country"`
	OccurredAt        time.Time       `json:"occurred_at"`
	DeviceFingerprint string          `json:"device_fingerprint"`
	IPAddress         string          `json:"ip_address"`
	PaymentMethod     string          `json:"payment_method"`
}

func historyKey(userID uuid.UUID) string {
	return fmt.Sprintf("risk:history:%s", userID)
}

// Record appends a transaction to the user's history and trims entries
// older than the retention TTL.
func (s *HistoryStore) Record(ctx context.Context, evt model.TransactionEvent) error {
	entry := historyEntry{
		TransactionID:     evt.TransactionID,
		UserID:            evt.UserID,
		Amount:            evt.Amount,
		Currency:          evt.Currency,
		Country:           evt.Country,
		OccurredAt:        evt.OccurredAt,
		DeviceFingerprint: evt.DeviceFingerprint,
		IPAddress:         evt.IPAddress,
		PaymentMethod:     evt.PaymentMethod,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := historyKey(evt.UserID)
	cutoff := time.Now().Add(-s.ttl).Unix()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(evt.OccurredAt.Unix()),
		Member: payload,
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
	pipe.Expire(ctx, key, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record transaction history: %w", err)
	}
	return nil
}

// Recent returns the user's transactions within the trailing window, oldest
// first. Entries that no longer parse are skipped.
func (s *HistoryStore) Recent(ctx context.Context, userID uuid.UUID, window time.Duration) ([]model.TransactionEvent, error) {
	cutoff := time.Now().Add(-window).Unix()

	members, err := s.client.ZRangeByScore(ctx, historyKey(userID), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", cutoff),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction history: %w", err)
	}

	events := make([]model.TransactionEvent, 0, len(members))
	for _, member := range members {
		var entry historyEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			s.logger.Warn("skipping unreadable history entry",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		events = append(events, model.TransactionEvent{
			TransactionID:     entry.TransactionID,
			UserID:            entry.UserID,
			Amount:            entry.Amount,
			Currency:          entry.Currency,
			Country:           entry.Country,
			OccurredAt:        entry.OccurredAt,
			DeviceFingerprint: entry.DeviceFingerprint,
			IPAddress:         entry.IPAddress,
			PaymentMethod:     entry.PaymentMethod,
		})
	}

	return events, nil
}
