package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Event is one JSON message. Key selects the partition, so all events of
// one query land on the same partition in order.
type Event struct {
	Key   string
	Value any
}

// Producer publishes JSON-encoded events to one topic.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    500,
		BatchTimeout: 50 * time.Millisecond,
		MaxAttempts:  1,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Lz4,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes events in one synchronous call. Retries are left to the
// caller.
func (p *Producer) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return fmt.Errorf("marshaling event value: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
		})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("publishing %d messages to kafka: %w", len(messages), err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

// Stats returns the writer counters accumulated since the last call.
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
