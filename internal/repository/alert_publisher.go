package repository

import (
	"context"

	"SentiPulse/internal/domain/models"
	pkgkafka "SentiPulse/pkg/kafka"
	applogger "SentiPulse/pkg/logger"
)

// KafkaAlertSink implements AlertSink over the Kafka producer. Events go
// to a single notifications topic keyed by symbol so one symbol's alerts
// stay ordered within a partition.
type KafkaAlertSink struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

// NewKafkaAlertSink creates the sink.
func NewKafkaAlertSink(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaAlertSink {
	return &KafkaAlertSink{producer: producer, topic: topic, l: l}
}

// Publish fans events out as one batch.
func (s *KafkaAlertSink) Publish(ctx context.Context, events []models.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(events))
	for _, ev := range events {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(ev.Symbol),
			Value: ev,
		})
	}
	if err := s.producer.PublishBatch(ctx, s.topic, msgs); err != nil {
		s.l.Error("alert publish failed",
			applogger.String("topic", s.topic),
			applogger.Int("events", len(events)),
			applogger.Error(err))
		return err
	}
	s.l.Debug("alerts published",
		applogger.String("topic", s.topic),
		applogger.Int("events", len(events)))
	return nil
}

// Close closes the underlying producer.
func (s *KafkaAlertSink) Close() error {
	return s.producer.Close()
}
