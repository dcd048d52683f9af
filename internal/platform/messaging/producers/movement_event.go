// Package producers publishes recorded movements to Kafka for downstream
// consumers (audit trails, analytics). The movement log stays the source of
// truth; these events are observational and delivery is best effort.
package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/crypto-wallet-ledger/internal/config"
)

// MovementEventProducer publishes one message per recorded movement, keyed
// by movement ID.
type MovementEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewMovementEventProducer creates the producer and ensures the movement
// events topic exists.
func NewMovementEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*MovementEventProducer, error) {
	if cfg.MovementTopic == "" {
		return nil, fmt.Errorf("kafka movement topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for movement event producer: %w", err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, cfg.MovementTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure movement topic %s exists: %w", cfg.MovementTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.MovementTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &MovementEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.MovementTopic,
	}, nil
}

// Publish sends one movement event. The caller decides what a failure
// means; for the ledger service it is logged and dropped.
func (p *MovementEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal movement event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish movement event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish movement event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published movement event", "topic", p.topic, "key", key)
	return nil
}

func (p *MovementEventProducer) Close() error {
	p.logger.Info("Closing movement event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close movement event writer for topic %s: %w", p.topic, err)
	}
	return nil
}
