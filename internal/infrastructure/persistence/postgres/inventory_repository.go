package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
)

const itemColumns = `id, name, seller, description, price, quantity, version, created_at, updated_at`

type InventoryRepository struct {
	q monitoring.Querier
}

func NewInventoryRepository(q monitoring.Querier) *InventoryRepository {
	return &InventoryRepository{q: q}
}

func scanItem(row interface{ Scan(...interface{}) error }) (*inventory.Item, error) {
	var it inventory.Item
	err := row.Scan(&it.ID, &it.Name, &it.Seller, &it.Description, &it.Price, &it.Quantity, &it.Version, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *InventoryRepository) GetByID(ctx context.Context, id int64) (*inventory.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`

	it, err := scanItem(monitoring.InstrumentQueryRow(ctx, r.q, "SELECT", "inventory_items", query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErrors.ErrItemNotFound
		}
		return nil, mapError("get inventory item", err)
	}
	return it, nil
}

func (r *InventoryRepository) List(ctx context.Context, limit, offset int) ([]*inventory.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items ORDER BY id LIMIT NULLIF($1::int, 0) OFFSET $2`

	rows, err := monitoring.InstrumentQuery(ctx, r.q, "SELECT", "inventory_items", query, limit, offset)
	if err != nil {
		return nil, mapError("list inventory", err)
	}
	defer rows.Close()

	items := make([]*inventory.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list inventory", err)
	}
	return items, nil
}

func (r *InventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	query := `
		INSERT INTO inventory_items (name, seller, description, price, quantity, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		RETURNING id, version
	`

	row := monitoring.InstrumentQueryRow(ctx, r.q, "INSERT", "inventory_items", query,
		item.Name, item.Seller, item.Description, item.Price, item.Quantity, item.CreatedAt,
	)
	if err := row.Scan(&item.ID, &item.Version); err != nil {
		return mapError("create inventory item", err)
	}
	item.UpdatedAt = item.CreatedAt
	return nil
}

// Update writes quantity and descriptive fields when the stored version still
// matches item.Version.
func (r *InventoryRepository) Update(ctx context.Context, item *inventory.Item) error {
	query := `
		UPDATE inventory_items
		SET name = $3, description = $4, price = $5, quantity = $6, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING updated_at
	`

	row := monitoring.InstrumentQueryRow(ctx, r.q, "UPDATE", "inventory_items", query,
		item.ID, item.Version, item.Name, item.Description, item.Price, item.Quantity,
	)
	if err := row.Scan(&item.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("inventory item %d was changed or removed: %w", item.ID, domainErrors.ErrConcurrencyConflict)
		}
		return mapError("update inventory item", err)
	}
	item.Version++
	return nil
}
