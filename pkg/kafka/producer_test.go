package kafka

import (
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func TestNewProducer(t *testing.T) {
	cfg := Config{
		Brokers:       []string{"localhost:9092", "localhost:9093"},
		ConsumerGroup: "test-group",
		TLS:           false,
	}

	p := NewProducer(cfg)
	if p == nil {
		t.Fatal("expected non-nil producer")
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if p.brokers[0] != "localhost:9092" {
		t.Errorf("expected broker localhost:9092, got %s", p.brokers[0])
	}
	if p.writers == nil {
		t.Fatal("expected writers map to be initialized")
	}
	if len(p.writers) != 0 {
		t.Errorf("expected empty writers map, got %d entries", len(p.writers))
	}
}

func TestMessageConstruction(t *testing.T) {
	msg := Message{
		Key:   []byte("assessment-123"),
		Value: []byte(`{"risk_score":0.42}`),
		Headers: map[string]string{
			"content-type": "application/json",
			"event-type":   "risk.assessment.completed",
		},
	}

	if string(msg.Key) != "assessment-123" {
		t.Errorf("expected key assessment-123, got %s", string(msg.Key))
	}
	if string(msg.Value) != `{"risk_score":0.42}` {
		t.Errorf("unexpected value: %s", string(msg.Value))
	}
	if len(msg.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(msg.Headers))
	}
	if msg.Headers["event-type"] != "risk.assessment.completed" {
		t.Errorf("unexpected event-type header: %s", msg.Headers["event-type"])
	}
}

func TestGetOrCreateWriter(t *testing.T) {
	cfg := Config{
		Brokers: []string{"localhost:9092"},
	}
	p := NewProducer(cfg)

	w1 := p.getOrCreateWriter("topic-a")
	if w1 == nil {
		t.Fatal("expected non-nil writer")
	}

	// Same topic should return the same writer instance.
	w2 := p.getOrCreateWriter("topic-a")
	if w1 != w2 {
		t.Error("expected same writer instance for same topic")
	}

	// Different topic should return a different writer.
	w3 := p.getOrCreateWriter("topic-b")
	if w3 == nil {
		t.Fatal("expected non-nil writer for topic-b")
	}
	if w1 == w3 {
		t.Error("expected different writer instance for different topic")
	}

	if len(p.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(p.writers))
	}
}

func TestWriterKeyOrderingBalancer(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}})

	w := p.getOrCreateWriter("risk.assessments")
	if _, ok := w.Balancer.(*kafkago.Hash); !ok {
		t.Errorf("expected Hash balancer for per-key ordering, got %T", w.Balancer)
	}
	if w.RequiredAcks != kafkago.RequireAll {
		t.Errorf("expected RequireAll acks, got %v", w.RequiredAcks)
	}
}

func TestProducerSecurityTransport(t *testing.T) {
	p := NewProducer(Config{
		Brokers:       []string{"localhost:9092"},
		TLS:           true,
		SASLEnabled:   true,
		SASLMechanism: "SCRAM-SHA-256",
		SASLUsername:  "risk",
		SASLPassword:  "secret",
	})

	if p.transport == nil {
		t.Fatal("expected transport to be configured")
	}
	if p.transport.TLS == nil {
		t.Error("expected TLS config on transport")
	}
	if p.transport.SASL == nil {
		t.Error("expected SASL mechanism on transport")
	}

	w := p.getOrCreateWriter("risk.assessments")
	if w.Transport != p.transport {
		t.Error("expected writer to use the shared transport")
	}
}

func TestProducerClose(t *testing.T) {
	cfg := Config{
		Brokers: []string{"localhost:9092"},
	}
	p := NewProducer(cfg)

	_ = p.getOrCreateWriter("topic-a")
	_ = p.getOrCreateWriter("topic-b")

	if len(p.writers) != 2 {
		t.Fatalf("expected 2 writers before close, got %d", len(p.writers))
	}

	err := p.Close()
	if err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}

	if len(p.writers) != 0 {
		t.Errorf("expected 0 writers after close, got %d", len(p.writers))
	}
}
