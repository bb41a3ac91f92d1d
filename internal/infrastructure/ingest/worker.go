// Package ingest consumes settled payments and maintains the per-user
// history the velocity and device checks read.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/infrastructure/metrics"
	"github.com/aurorapay/risk-engine/pkg/kafka"
)

// HistoryRecorder appends a transaction to a user's trailing history.
type HistoryRecorder interface {
	Record(ctx context.Context, evt model.TransactionEvent) error
}

// DeviceRegistrar records a device sighting for a user.
type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context, userID uuid.UUID, fingerprint string, seenAt time.Time) error
}

// SettledPayment is the wire format of payments.settled messages.
type SettledPayment struct {
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

// Worker handles settled payment messages. Malformed or invalid messages
// are dropped with a warning; infrastructure failures propagate so the
// offset is not committed and the message is redelivered.
type Worker struct {
	history HistoryRecorder
	devices DeviceRegistrar
	logger  *slog.Logger
}

// NewWorker creates an ingest worker.
func NewWorker(history HistoryRecorder, devices DeviceRegistrar, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{history: history, devices: devices, logger: logger}
}

// Handle processes one settled payment message.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	var payment SettledPayment
	if err := json.Unmarshal(msg.Value, &payment); err != nil {
		w.logger.Warn("dropping unreadable settled payment",
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()),
		)
		metrics.IngestedTransactions.WithLabelValues("invalid").Inc()
		return nil
	}

	evt := model.TransactionEvent{
		TransactionID:     payment.TransactionID,
		UserID:            payment.UserID,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		Country:           payment.Country,
		OccurredAt:        payment.OccurredAt,
		DeviceFingerprint: payment.DeviceFingerprint,
		IPAddress:         payment.IPAddress,
		PaymentMethod:     payment.PaymentMethod,
	}
	if err := evt.Validate(); err != nil {
		w.logger.Warn("dropping invalid settled payment",
			slog.String("transaction_id", payment.TransactionID.String()),
			slog.String("error", err.Error()),
		)
		metrics.IngestedTransactions.WithLabelValues("invalid").Inc()
		return nil
	}

	if err := w.history.Record(ctx, evt); err != nil {
		metrics.IngestedTransactions.WithLabelValues("error").Inc()
		return fmt.Errorf("record history: %w", err)
	}

	if err := w.devices.RegisterDevice(ctx, evt.UserID, evt.DeviceFingerprint, evt.OccurredAt); err != nil {
		metrics.IngestedTransactions.WithLabelValues("error").Inc()
		return fmt.Errorf("register device: %w", err)
	}

	metrics.IngestedTransactions.WithLabelValues("ok").Inc()
	return nil
}
