package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/pkg/clock"
)

// Store is an in-process implementation of ports.UnitOfWork. Transactions buffer
// their writes and validate entity versions at commit, so concurrent writers to
// the same row get ErrConcurrencyConflict instead of a lost update.
type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	lines map[int64]*cart.Line
	items map[int64]*inventory.Item
	sales []*sale.Record

	nextLineID int64
	nextItemID int64
	nextSaleID int64
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Store{
		clock: clk,
		lines: make(map[int64]*cart.Line),
		items: make(map[int64]*inventory.Item),
	}
}

func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newTx(s), nil
}

func (s *Store) Carts() ports.CartRepository {
	return &autoCartRepository{store: s}
}

func (s *Store) Inventory() ports.InventoryRepository {
	return &autoInventoryRepository{store: s}
}

func (s *Store) Sales() ports.SaleRepository {
	return &autoSaleRepository{store: s}
}

// Snapshot is a point-in-time copy of everything committed.
type Snapshot struct {
	Lines []*cart.Line
	Items map[int64]*inventory.Item
	Sales []*sale.Record
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Lines: make([]*cart.Line, 0, len(s.lines)),
		Items: make(map[int64]*inventory.Item, len(s.items)),
		Sales: make([]*sale.Record, 0, len(s.sales)),
	}
	for _, l := range s.lines {
		snap.Lines = append(snap.Lines, l.Clone())
	}
	sort.Slice(snap.Lines, func(i, j int) bool { return snap.Lines[i].ID < snap.Lines[j].ID })
	for id, it := range s.items {
		snap.Items[id] = it.Clone()
	}
	for _, r := range s.sales {
		c := *r
		snap.Sales = append(snap.Sales, &c)
	}
	return snap
}

func (s *Store) allocLineID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLineID++
	return s.nextLineID
}

func (s *Store) allocItemID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	return s.nextItemID
}

func (s *Store) allocSaleID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSaleID++
	return s.nextSaleID
}

// autocommit wraps a single operation in its own transaction.
func autocommit(ctx context.Context, s *Store, fn func(t *tx) error) error {
	return ports.RunInTx(ctx, s, func(ptx ports.Tx) error {
		return fn(ptx.(*tx))
	})
}

type autoCartRepository struct {
	store *Store
}

func (r *autoCartRepository) ListByCart(ctx context.Context, cartID string) (lines []*cart.Line, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		lines, err = t.Carts().ListByCart(ctx, cartID)
		return err
	})
	return lines, err
}

func (r *autoCartRepository) GetByID(ctx context.Context, id int64) (line *cart.Line, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		line, err = t.Carts().GetByID(ctx, id)
		return err
	})
	return line, err
}

func (r *autoCartRepository) Exists(ctx context.Context, id int64) (ok bool, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		ok, err = t.Carts().Exists(ctx, id)
		return err
	})
	return ok, err
}

func (r *autoCartRepository) Create(ctx context.Context, line *cart.Line) error {
	return autocommit(ctx, r.store, func(t *tx) error {
		return t.Carts().Create(ctx, line)
	})
}

func (r *autoCartRepository) Update(ctx context.Context, line *cart.Line) error {
	return autocommit(ctx, r.store, func(t *tx) error {
		return t.Carts().Update(ctx, line)
	})
}

func (r *autoCartRepository) Delete(ctx context.Context, id int64) error {
	return autocommit(ctx, r.store, func(t *tx) error {
		return t.Carts().Delete(ctx, id)
	})
}

func (r *autoCartRepository) DeleteByCart(ctx context.Context, cartID string) (n int, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		n, err = t.Carts().DeleteByCart(ctx, cartID)
		return err
	})
	return n, err
}

type autoInventoryRepository struct {
	store *Store
}

func (r *autoInventoryRepository) GetByID(ctx context.Context, id int64) (item *inventory.Item, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		item, err = t.Inventory().GetByID(ctx, id)
		return err
	})
	return item, err
}

func (r *autoInventoryRepository) List(ctx context.Context, limit, offset int) (items []*inventory.Item, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		items, err = t.Inventory().List(ctx, limit, offset)
		return err
	})
	return items, err
}

func (r *autoInventoryRepository) Create(ctx context.Context, item *inventory.Item) error {
	return autocommit(ctx, r.store, func(t *tx) error {
		return t.Inventory().Create(ctx, item)
	})
}

func (r *autoInventoryRepository) Update(ctx context.Context, item *inventory.Item) error {
	return autocommit(ctx, r.store, func(t *tx) error {
		return t.Inventory().Update(ctx, item)
	})
}

type autoSaleRepository struct {
	store *Store
}

func (r *autoSaleRepository) Create(ctx context.Context, record *sale.Record) error {
	return autocommit(ctx, r.store, func(t *tx) error {
		return t.Sales().Create(ctx, record)
	})
}

func (r *autoSaleRepository) ListByBuyer(ctx context.Context, buyer string, limit, offset int) (records []*sale.Record, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		records, err = t.Sales().ListByBuyer(ctx, buyer, limit, offset)
		return err
	})
	return records, err
}

func (r *autoSaleRepository) ListBySeller(ctx context.Context, seller string, limit, offset int) (records []*sale.Record, err error) {
	err = autocommit(ctx, r.store, func(t *tx) error {
		records, err = t.Sales().ListBySeller(ctx, seller, limit, offset)
		return err
	})
	return records, err
}
