package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher keys messages by cart id so events for one cart stay on one
// partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(w, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: log}
}

func (p *KafkaPublisher) PublishCheckoutCompleted(ctx context.Context, event sale.CheckoutCompleted) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.CartID),
		Value: body,
		Time:  event.CompletedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	})

	monitoring.RecordEventPublished(p.topic, err)
	if err != nil {
		p.logger.Error("Failed to publish checkout event",
			"broker", "kafka",
			"event_id", event.EventID,
			"error", err,
		)
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
