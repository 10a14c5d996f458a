package events

import (
	"encoding/json"
	"fmt"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/config"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

// New builds the publisher selected by cfg.Driver. "none" and "" give a publisher
// that only logs.
func New(cfg config.EventsConfig, log *logger.Logger) (ports.EventPublisher, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = sale.CheckoutCompletedTopic
	}

	switch cfg.Driver {
	case "", "none":
		return NewNoopPublisher(log), nil
	case "rabbitmq":
		p, err := DialRabbitMQ(cfg.AMQPURL, cfg.Exchange, topic, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, topic, log), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

func encode(event sale.CheckoutCompleted) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", sale.CheckoutCompletedTopic, err)
	}
	return body, nil
}
