package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"clientregistry/pkg/logger"
)

// Sink delivers a single event somewhere durable.
type Sink interface {
	Write(ctx context.Context, e Event) error
	Close() error
}

// KafkaSinkConfig contains configuration for the Kafka audit sink
type KafkaSinkConfig struct {
	Brokers      []string
	Topic        string
	RetryMax     int
	Timeout      time.Duration
	RequiredAcks sarama.RequiredAcks
	Compression  sarama.CompressionCodec
}

func DefaultKafkaSinkConfig() *KafkaSinkConfig {
	return &KafkaSinkConfig{
		Brokers:      []string{"localhost:9092"},
		Topic:        "clientregistry.audit",
		RetryMax:     3,
		Timeout:      10 * time.Second,
		RequiredAcks: sarama.WaitForAll,
		Compression:  sarama.CompressionSnappy,
	}
}

// SaramaConfig builds the producer configuration used by NewKafkaSink.
func (c *KafkaSinkConfig) SaramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = "clientregistry-audit"
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = c.RequiredAcks
	sc.Producer.Compression = c.Compression
	sc.Producer.Retry.Max = c.RetryMax
	sc.Producer.Timeout = c.Timeout
	// same subject, same partition
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	return sc
}

type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewKafkaSink(cfg *KafkaSinkConfig, log *logger.Logger) (*KafkaSink, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, cfg.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, cfg.Topic, log), nil
}

// NewKafkaSinkWithProducer wraps an existing producer.
func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic, log: log}
}

func (s *KafkaSink) Write(ctx context.Context, e Event) error {
	payload, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     s.topic,
		Key:       sarama.StringEncoder(e.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: e.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(e.ID.String())},
			{Key: []byte("event_type"), Value: []byte(e.Type)},
			{Key: []byte("producer"), Value: []byte("clientregistry")},
		},
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send audit event to Kafka: %w", err)
	}

	if s.log != nil {
		s.log.DebugContext(ctx, "audit event published",
			"topic", s.topic, "partition", partition, "offset", offset, "type", e.Type)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.producer == nil {
		return nil
	}
	if err := s.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

// LogSink writes events to the structured log. Used when Kafka is disabled.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Write(ctx context.Context, e Event) error {
	s.log.InfoContext(ctx, "audit",
		"event_id", e.ID.String(),
		"type", string(e.Type),
		"subject", e.Subject,
		"email", e.Email,
		"resource", e.Resource,
		"reason", e.Reason,
		"ip", e.IP,
		"occurred_at", e.OccurredAt,
	)
	return nil
}

func (s *LogSink) Close() error { return nil }
