package ports

import (
	"context"

	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

type EventPublisher interface {
	PublishCheckoutCompleted(ctx context.Context, event sale.CheckoutCompleted) error
	Close() error
}
