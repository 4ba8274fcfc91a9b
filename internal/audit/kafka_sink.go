package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/models"
)

// messageWriter is the part of *kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes audit events keyed by user so one user's events stay ordered.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(w messageWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

// NewKafkaWriter builds the writer for the audit topic. brokers is a
// comma-separated list.
func NewKafkaWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, event *models.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	})
}

// messageReader is the part of *kafka.Reader the consumer needs.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// NewKafkaReader builds a consumer-group reader for the audit topic.
func NewKafkaReader(brokers, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// ConsumeEvents reads audit events until ctx is cancelled, passing each decoded
// event to handle. Undecodable messages are logged and skipped.
func ConsumeEvents(ctx context.Context, r messageReader, logger *zap.Logger, handle func(*models.AuditEvent)) error {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read audit message: %w", err)
		}

		var event models.AuditEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("error unmarshaling audit event",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		handle(&event)
	}
}
