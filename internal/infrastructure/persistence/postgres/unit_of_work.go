package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
)

// UnitOfWork hands out auto-commit repositories over the pool and transaction-bound
// ones from Begin.
type UnitOfWork struct {
	db        *sql.DB
	isolation sql.IsolationLevel
}

// NewUnitOfWork uses READ COMMITTED. Lost updates are caught by the version
// columns; stricter levels surface as serialization failures, which map to
// ErrConcurrencyConflict as well.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{db: conn.GetDB(), isolation: sql.LevelReadCommitted}
}

func (u *UnitOfWork) Carts() ports.CartRepository          { return NewCartRepository(u.db) }
func (u *UnitOfWork) Inventory() ports.InventoryRepository { return NewInventoryRepository(u.db) }
func (u *UnitOfWork) Sales() ports.SaleRepository          { return NewSaleRepository(u.db) }

func (u *UnitOfWork) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: u.isolation})
	if err != nil {
		return nil, mapError("begin", err)
	}
	return &Tx{tx: tx}, nil
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Carts() ports.CartRepository          { return NewCartRepository(t.tx) }
func (t *Tx) Inventory() ports.InventoryRepository { return NewInventoryRepository(t.tx) }
func (t *Tx) Sales() ports.SaleRepository          { return NewSaleRepository(t.tx) }

func (t *Tx) Commit(ctx context.Context) error {
	end := monitoring.TimeDBQuery("COMMIT", "tx")
	defer end()
	return mapError("commit", t.tx.Commit())
}

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
