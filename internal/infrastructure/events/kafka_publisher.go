// Package events publishes recommendation events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/service"
	"github.com/bocado-ai/gate/pkg/logger"
)

const defaultTopic = "bocado.recommendations"

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is a Kafka-backed service.EventPublisher.
type KafkaPublisher struct {
	writer messageWriter
	logger logger.Logger
}

var _ service.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           batchTimeout,
		Async:                  true,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, log)
}

func newKafkaPublisher(w messageWriter, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: log.WithComponent("events")}
}

// PublishRecommendation writes event keyed by user id.
func (p *KafkaPublisher) PublishRecommendation(ctx context.Context, event service.RecommendationEvent) error {
	if event.Type == "" {
		event.Type = "recommendation.generated"
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	bytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal recommendation event", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: bytes,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write message to Kafka", err,
			logger.String("interaction_id", event.InteractionID))
	}
	return err
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishRecommendation(context.Context, service.RecommendationEvent) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

// NewPublisher returns a Kafka publisher when enabled, otherwise a NoopPublisher.
func NewPublisher(cfg config.KafkaConfig, log logger.Logger) service.EventPublisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(cfg, log)
}
