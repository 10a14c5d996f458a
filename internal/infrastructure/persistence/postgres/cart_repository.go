package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
)

const cartLineColumns = `id, cart_id, item_id, quantity, seller_name, item_name, version, created_at`

// CartRepository works against either the pool or an open transaction.
type CartRepository struct {
	q monitoring.Querier
}

func NewCartRepository(q monitoring.Querier) *CartRepository {
	return &CartRepository{q: q}
}

func scanLine(row interface{ Scan(...interface{}) error }) (*cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ID, &l.CartID, &l.ItemRef, &l.Quantity, &l.SellerName, &l.ItemName, &l.Version, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *CartRepository) ListByCart(ctx context.Context, cartID string) ([]*cart.Line, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE cart_id = $1 ORDER BY id`

	rows, err := monitoring.InstrumentQuery(ctx, r.q, "SELECT", "cart_lines", query, cartID)
	if err != nil {
		return nil, mapError("list cart lines", err)
	}
	defer rows.Close()

	lines := make([]*cart.Line, 0)
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list cart lines", err)
	}
	return lines, nil
}

func (r *CartRepository) GetByID(ctx context.Context, id int64) (*cart.Line, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE id = $1`

	l, err := scanLine(monitoring.InstrumentQueryRow(ctx, r.q, "SELECT", "cart_lines", query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErrors.ErrCartLineNotFound
		}
		return nil, mapError("get cart line", err)
	}
	return l, nil
}

func (r *CartRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM cart_lines WHERE id = $1)`

	var exists bool
	if err := monitoring.InstrumentQueryRow(ctx, r.q, "SELECT", "cart_lines", query, id).Scan(&exists); err != nil {
		return false, mapError("check cart line", err)
	}
	return exists, nil
}

func (r *CartRepository) Create(ctx context.Context, line *cart.Line) error {
	query := `
		INSERT INTO cart_lines (cart_id, item_id, quantity, seller_name, item_name, version, created_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		RETURNING id, version
	`

	row := monitoring.InstrumentQueryRow(ctx, r.q, "INSERT", "cart_lines", query,
		line.CartID, line.ItemRef, line.Quantity, line.SellerName, line.ItemName, line.CreatedAt,
	)
	if err := row.Scan(&line.ID, &line.Version); err != nil {
		return mapError("create cart line", err)
	}
	return nil
}

func (r *CartRepository) Update(ctx context.Context, line *cart.Line) error {
	query := `
		UPDATE cart_lines
		SET quantity = $3, version = version + 1
		WHERE id = $1 AND version = $2
	`

	res, err := monitoring.InstrumentExec(ctx, r.q, "UPDATE", "cart_lines", query, line.ID, line.Version, line.Quantity)
	if err != nil {
		return mapError("update cart line", err)
	}
	if err := requireOneRow(res, "cart line", line.ID); err != nil {
		return err
	}
	line.Version++
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM cart_lines WHERE id = $1`

	res, err := monitoring.InstrumentExec(ctx, r.q, "DELETE", "cart_lines", query, id)
	if err != nil {
		return mapError("delete cart line", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domainErrors.ErrCartLineNotFound
	}
	return nil
}

func (r *CartRepository) DeleteByCart(ctx context.Context, cartID string) (int, error) {
	query := `DELETE FROM cart_lines WHERE cart_id = $1`

	res, err := monitoring.InstrumentExec(ctx, r.q, "DELETE", "cart_lines", query, cartID)
	if err != nil {
		return 0, mapError("delete cart", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
