package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

var errTxDone = errors.New("transaction already finished")

// tx keeps pending rows keyed by id. A nil line marks a delete. The *Base maps hold
// the committed version each pending row was derived from; 0 means created here.
type tx struct {
	store *Store
	done  bool

	lines    map[int64]*cart.Line
	lineBase map[int64]int64

	items    map[int64]*inventory.Item
	itemBase map[int64]int64

	sales []*sale.Record
}

func newTx(s *Store) *tx {
	return &tx{
		store:    s,
		lines:    make(map[int64]*cart.Line),
		lineBase: make(map[int64]int64),
		items:    make(map[int64]*inventory.Item),
		itemBase: make(map[int64]int64),
	}
}

func (t *tx) Carts() ports.CartRepository           { return (*txCarts)(t) }
func (t *tx) Inventory() ports.InventoryRepository { return (*txInventory)(t) }
func (t *tx) Sales() ports.SaleRepository          { return (*txSales)(t) }

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, base := range t.lineBase {
		if base == 0 {
			continue
		}
		cur, ok := s.lines[id]
		if !ok || cur.Version != base {
			return fmt.Errorf("cart line %d changed since read: %w", id, domainErrors.ErrConcurrencyConflict)
		}
	}
	for id, base := range t.itemBase {
		if base == 0 {
			continue
		}
		cur, ok := s.items[id]
		if !ok || cur.Version != base {
			return fmt.Errorf("inventory item %d changed since read: %w", id, domainErrors.ErrConcurrencyConflict)
		}
	}

	for id, l := range t.lines {
		if l == nil {
			delete(s.lines, id)
			continue
		}
		s.lines[id] = l.Clone()
	}
	for id, it := range t.items {
		s.items[id] = it.Clone()
	}
	for _, r := range t.sales {
		c := *r
		s.sales = append(s.sales, &c)
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

func (t *tx) check() error {
	if t.done {
		return errTxDone
	}
	return nil
}

func (t *tx) viewLine(id int64) (*cart.Line, bool) {
	if l, ok := t.lines[id]; ok {
		if l == nil {
			return nil, false
		}
		return l.Clone(), true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	l, ok := t.store.lines[id]
	if !ok {
		return nil, false
	}
	return l.Clone(), true
}

func (t *tx) viewItem(id int64) (*inventory.Item, bool) {
	if it, ok := t.items[id]; ok {
		return it.Clone(), true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	it, ok := t.store.items[id]
	if !ok {
		return nil, false
	}
	return it.Clone(), true
}

type txCarts tx

func (r *txCarts) tx() *tx { return (*tx)(r) }

func (r *txCarts) ListByCart(ctx context.Context, cartID string) ([]*cart.Line, error) {
	t := r.tx()
	if err := t.check(); err != nil {
		return nil, err
	}

	view := make(map[int64]*cart.Line)
	t.store.mu.Lock()
	for id, l := range t.store.lines {
		if l.CartID == cartID {
			view[id] = l.Clone()
		}
	}
	t.store.mu.Unlock()

	for id, l := range t.lines {
		if l == nil || l.CartID != cartID {
			delete(view, id)
			continue
		}
		view[id] = l.Clone()
	}

	lines := make([]*cart.Line, 0, len(view))
	for _, l := range view {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (r *txCarts) GetByID(ctx context.Context, id int64) (*cart.Line, error) {
	t := r.tx()
	if err := t.check(); err != nil {
		return nil, err
	}
	l, ok := t.viewLine(id)
	if !ok {
		return nil, domainErrors.ErrCartLineNotFound
	}
	return l, nil
}

func (r *txCarts) Exists(ctx context.Context, id int64) (bool, error) {
	t := r.tx()
	if err := t.check(); err != nil {
		return false, err
	}
	_, ok := t.viewLine(id)
	return ok, nil
}

func (r *txCarts) Create(ctx context.Context, line *cart.Line) error {
	t := r.tx()
	if err := t.check(); err != nil {
		return err
	}
	line.ID = t.store.allocLineID()
	line.Version = 1
	if line.CreatedAt.IsZero() {
		line.CreatedAt = t.store.clock.Now()
	}
	t.lines[line.ID] = line.Clone()
	t.lineBase[line.ID] = 0
	return nil
}

func (r *txCarts) Update(ctx context.Context, line *cart.Line) error {
	t := r.tx()
	if err := t.check(); err != nil {
		return err
	}
	cur, ok := t.viewLine(line.ID)
	if !ok || cur.Version != line.Version {
		return fmt.Errorf("update cart line %d: %w", line.ID, domainErrors.ErrConcurrencyConflict)
	}
	if _, pending := t.lineBase[line.ID]; !pending {
		t.lineBase[line.ID] = cur.Version
	}
	line.Version++
	t.lines[line.ID] = line.Clone()
	return nil
}

func (r *txCarts) Delete(ctx context.Context, id int64) error {
	t := r.tx()
	if err := t.check(); err != nil {
		return err
	}
	cur, ok := t.viewLine(id)
	if !ok {
		return domainErrors.ErrCartLineNotFound
	}
	if _, pending := t.lineBase[id]; !pending {
		t.lineBase[id] = cur.Version
	}
	t.lines[id] = nil
	return nil
}

func (r *txCarts) DeleteByCart(ctx context.Context, cartID string) (int, error) {
	lines, err := r.ListByCart(ctx, cartID)
	if err != nil {
		return 0, err
	}
	for _, l := range lines {
		if err := r.Delete(ctx, l.ID); err != nil {
			return 0, err
		}
	}
	return len(lines), nil
}

type txInventory tx

func (r *txInventory) tx() *tx { return (*tx)(r) }

func (r *txInventory) GetByID(ctx context.Context, id int64) (*inventory.Item, error) {
	t := r.tx()
	if err := t.check(); err != nil {
		return nil, err
	}
	it, ok := t.viewItem(id)
	if !ok {
		return nil, domainErrors.ErrItemNotFound
	}
	return it, nil
}

func (r *txInventory) List(ctx context.Context, limit, offset int) ([]*inventory.Item, error) {
	t := r.tx()
	if err := t.check(); err != nil {
		return nil, err
	}

	view := make(map[int64]*inventory.Item)
	t.store.mu.Lock()
	for id, it := range t.store.items {
		view[id] = it.Clone()
	}
	t.store.mu.Unlock()
	for id, it := range t.items {
		view[id] = it.Clone()
	}

	items := make([]*inventory.Item, 0, len(view))
	for _, it := range view {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, limit, offset), nil
}

func (r *txInventory) Create(ctx context.Context, item *inventory.Item) error {
	t := r.tx()
	if err := t.check(); err != nil {
		return err
	}
	now := t.store.clock.Now()
	item.ID = t.store.allocItemID()
	item.Version = 1
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	t.items[item.ID] = item.Clone()
	t.itemBase[item.ID] = 0
	return nil
}

func (r *txInventory) Update(ctx context.Context, item *inventory.Item) error {
	t := r.tx()
	if err := t.check(); err != nil {
		return err
	}
	cur, ok := t.viewItem(item.ID)
	if !ok || cur.Version != item.Version {
		return fmt.Errorf("update inventory item %d: %w", item.ID, domainErrors.ErrConcurrencyConflict)
	}
	if _, pending := t.itemBase[item.ID]; !pending {
		t.itemBase[item.ID] = cur.Version
	}
	item.Version++
	item.UpdatedAt = t.store.clock.Now()
	t.items[item.ID] = item.Clone()
	return nil
}

type txSales tx

func (r *txSales) tx() *tx { return (*tx)(r) }

func (r *txSales) Create(ctx context.Context, record *sale.Record) error {
	t := r.tx()
	if err := t.check(); err != nil {
		return err
	}
	record.ID = t.store.allocSaleID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.store.clock.Now()
	}
	c := *record
	t.sales = append(t.sales, &c)
	return nil
}

func (r *txSales) ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]*sale.Record, error) {
	return r.list(func(rec *sale.Record) bool { return rec.Buyer == buyer }, limit, offset)
}

func (r *txSales) ListBySeller(ctx context.Context, seller string, limit, offset int) ([]*sale.Record, error) {
	return r.list(func(rec *sale.Record) bool { return rec.Seller == seller }, limit, offset)
}

// list returns matching records newest first.
func (r *txSales) list(match func(*sale.Record) bool, limit, offset int) ([]*sale.Record, error) {
	t := r.tx()
	if err := t.check(); err != nil {
		return nil, err
	}

	var out []*sale.Record
	t.store.mu.Lock()
	for _, rec := range t.store.sales {
		if match(rec) {
			c := *rec
			out = append(out, &c)
		}
	}
	t.store.mu.Unlock()
	for _, rec := range t.sales {
		if match(rec) {
			c := *rec
			out = append(out, &c)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
