package postgres

import (
	"context"

	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
)

const saleColumns = `id, buyer, seller, name, item_id, quantity, created_at`

// SaleRepository only inserts and reads; the ledger is never updated in place.
type SaleRepository struct {
	q monitoring.Querier
}

func NewSaleRepository(q monitoring.Querier) *SaleRepository {
	return &SaleRepository{q: q}
}

func (r *SaleRepository) Create(ctx context.Context, record *sale.Record) error {
	query := `
		INSERT INTO sales (buyer, seller, name, item_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	row := monitoring.InstrumentQueryRow(ctx, r.q, "INSERT", "sales", query,
		record.Buyer, record.Seller, record.Name, record.ItemRef, record.Quantity, record.CreatedAt,
	)
	if err := row.Scan(&record.ID); err != nil {
		return mapError("create sale record", err)
	}
	return nil
}

func (r *SaleRepository) ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]*sale.Record, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE buyer = $1 ORDER BY id DESC LIMIT NULLIF($2::int, 0) OFFSET $3`
	return r.list(ctx, query, buyer, limit, offset)
}

func (r *SaleRepository) ListBySeller(ctx context.Context, seller string, limit, offset int) ([]*sale.Record, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE seller = $1 ORDER BY id DESC LIMIT NULLIF($2::int, 0) OFFSET $3`
	return r.list(ctx, query, seller, limit, offset)
}

func (r *SaleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*sale.Record, error) {
	rows, err := monitoring.InstrumentQuery(ctx, r.q, "SELECT", "sales", query, args...)
	if err != nil {
		return nil, mapError("list sales", err)
	}
	defer rows.Close()

	records := make([]*sale.Record, 0)
	for rows.Next() {
		var s sale.Record
		if err := rows.Scan(&s.ID, &s.Buyer, &s.Seller, &s.Name, &s.ItemRef, &s.Quantity, &s.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list sales", err)
	}
	return records, nil
}
