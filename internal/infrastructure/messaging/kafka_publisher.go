// Package messaging implements the event publishing port on Kafka.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aurorapay/risk-engine/internal/domain/port"
	"github.com/aurorapay/risk-engine/pkg/events"
	"github.com/aurorapay/risk-engine/pkg/kafka"
)

var _ port.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher implements port.EventPublisher using Kafka. Messages are
// keyed by aggregate ID so all events for one assessment land on the same
// partition in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher creates a new Kafka event publisher.
func NewKafkaPublisher(producer *kafka.Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka.
func (p *KafkaPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		messages = append(messages, kafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: evt.Payload(),
			Headers: map[string]string{
				"event_id":       evt.EventID().String(),
				"event_type":     evt.EventType(),
				"aggregate_type": evt.AggregateType(),
				"occurred_at":    evt.OccurredAt().UTC().Format(time.RFC3339Nano),
			},
		})

		p.logger.Info("publishing event",
			slog.String("event_type", evt.EventType()),
			slog.String("aggregate_id", evt.AggregateID().String()),
			slog.String("topic", p.topic),
		)
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}
	return nil
}
