package use_cases

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/pkg/clock"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type CreateItemInput struct {
	Name        string
	Seller      string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

type RestockInput struct {
	ItemID int64
	Delta  int
	// Version is the version the caller last saw. Zero skips the staleness check.
	Version int64
}

type CatalogUseCase struct {
	uow   ports.UnitOfWork
	clock clock.Clock
	log   *logger.Logger
}

func NewCatalogUseCase(uow ports.UnitOfWork, clk clock.Clock, log *logger.Logger) *CatalogUseCase {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &CatalogUseCase{
		uow:   uow,
		clock: clk,
		log:   log,
	}
}

func (uc *CatalogUseCase) CreateItem(ctx context.Context, in CreateItemInput) (*inventory.Item, error) {
	item, err := inventory.NewItem(in.Name, in.Seller, in.Description, in.Price, in.Quantity, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.uow.Inventory().Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	uc.log.Info("Inventory item created", "item_id", item.ID, "seller", item.Seller, "quantity", item.Quantity)
	return item, nil
}

func (uc *CatalogUseCase) GetItem(ctx context.Context, id int64) (*inventory.Item, error) {
	return uc.uow.Inventory().GetByID(ctx, id)
}

func (uc *CatalogUseCase) ListItems(ctx context.Context, limit, offset int) ([]*inventory.Item, error) {
	limit, offset = normalizePage(limit, offset)
	items, err := uc.uow.Inventory().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return items, nil
}

// Restock adjusts stock with a version check, so it races safely with checkout
// decrements of the same row.
func (uc *CatalogUseCase) Restock(ctx context.Context, in RestockInput) (*inventory.Item, error) {
	if in.Delta == 0 {
		return nil, domainErrors.NewValidationError(
			map[string]string{"delta": "delta cannot be zero"},
			map[string]interface{}{"id": in.ItemID, "delta": in.Delta, "version": in.Version},
		)
	}

	var item *inventory.Item
	err := ports.RunInTx(ctx, uc.uow, func(tx ports.Tx) error {
		var err error
		item, err = tx.Inventory().GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if in.Version != 0 && item.Version != in.Version {
			return fmt.Errorf("item %d is at version %d, not %d: %w",
				item.ID, item.Version, in.Version, domainErrors.ErrConcurrencyConflict)
		}
		if err := item.Restock(in.Delta); err != nil {
			return err
		}
		return tx.Inventory().Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info("Inventory restocked", "item_id", item.ID, "delta", in.Delta, "quantity", item.Quantity)
	return item, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
