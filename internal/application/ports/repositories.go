package ports

import (
	"context"

	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

type CartRepository interface {
	ListByCart(ctx context.Context, cartID string) ([]*cart.Line, error)
	GetByID(ctx context.Context, id int64) (*cart.Line, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, line *cart.Line) error
	// Update writes line if its Version still matches the stored one and bumps it.
	Update(ctx context.Context, line *cart.Line) error
	Delete(ctx context.Context, id int64) error
	DeleteByCart(ctx context.Context, cartID string) (int, error)
}

type InventoryRepository interface {
	GetByID(ctx context.Context, id int64) (*inventory.Item, error)
	List(ctx context.Context, limit, offset int) ([]*inventory.Item, error)
	Create(ctx context.Context, item *inventory.Item) error
	// Update writes item if its Version still matches the stored one and bumps it.
	Update(ctx context.Context, item *inventory.Item) error
}

// SaleRepository is append-only.
type SaleRepository interface {
	Create(ctx context.Context, record *sale.Record) error
	ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]*sale.Record, error)
	ListBySeller(ctx context.Context, seller string, limit, offset int) ([]*sale.Record, error)
}
