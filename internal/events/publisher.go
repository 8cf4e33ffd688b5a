package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"econavix/internal/logging"
	"econavix/internal/models"
)

// DefaultSource identifies this service in published events
const DefaultSource = "econavix"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher publishes plan records as CloudEvents
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	source string
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	logger = logging.OrNop(logger).Named("events")
	if topic == "" {
		topic = TopicPlanEvents
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		ErrorLogger:            kafkago.LoggerFunc(logger.Sugar().Errorf),
	}
	return newPublisher(w, topic, logger)
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		source: DefaultSource,
		logger: logging.OrNop(logger),
	}
}

// Publish sends one plan record, keyed by its ID
func (p *KafkaPublisher) Publish(ctx context.Context, record models.PlanRecord) error {
	eventType := TypePlanCompleted
	if record.Status == models.PlanStatusFailed {
		eventType = TypePlanFailed
	}

	ce, err := NewCloudEvent(p.source, eventType, record)
	if err != nil {
		return err
	}
	value, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("marshal cloud event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(record.ID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "ce_type", Value: []byte(eventType)},
			{Key: "ce_id", Value: []byte(ce.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, p.topic, err)
	}

	p.logger.Debug("plan event published",
		zap.String("type", eventType),
		zap.String("event_id", ce.ID),
		zap.String("plan_id", record.ID),
	)
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards events; used when no brokers are configured
type Nop struct{}

func (Nop) Publish(ctx context.Context, record models.PlanRecord) error { return nil }

func (Nop) Close() error { return nil }
