package events

import (
	"context"

	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type NoopPublisher struct {
	logger *logger.Logger
}

func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{logger: log}
}

func (p *NoopPublisher) PublishCheckoutCompleted(ctx context.Context, event sale.CheckoutCompleted) error {
	p.logger.Debug("Checkout event dropped, no broker configured",
		"event_id", event.EventID,
		"cart_id", event.CartID,
	)
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
