package ports

import (
	"context"
	"fmt"
)

type Repositories interface {
	Carts() CartRepository
	Inventory() InventoryRepository
	Sales() SaleRepository
}

// Tx is a transactional scope. Rollback after Commit is a no-op.
type Tx interface {
	Repositories
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWork exposes auto-commit repositories and opens transactions.
type UnitOfWork interface {
	Repositories
	Begin(ctx context.Context) (Tx, error)
}

// RunInTx runs fn inside a transaction. The transaction is committed only when fn
// returns nil; every other exit path, panics included, rolls it back.
func RunInTx(ctx context.Context, uow UnitOfWork, fn func(tx Tx) error) (err error) {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tx.Rollback(ctx)
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
