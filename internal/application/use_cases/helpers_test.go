package use_cases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/persistence/memory"
	"github.com/yuzvak/salesboard-service/internal/pkg/clock"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	clock *clock.MockClock
}

func newFixture() *fixture {
	clk := clock.NewMockClock(testNow)
	return &fixture{store: memory.NewStore(clk), clock: clk}
}

func (f *fixture) item(t *testing.T, name, seller string, qty int) *inventory.Item {
	t.Helper()
	it, err := inventory.NewItem(name, seller, "", decimal.RequireFromString("9.99"), qty, testNow)
	require.NoError(t, err)
	require.NoError(t, f.store.Inventory().Create(context.Background(), it))
	return it
}

func (f *fixture) line(t *testing.T, cartID string, item *inventory.Item, qty int) *cart.Line {
	t.Helper()
	l, err := cart.NewLine(cartID, item.ID, qty, item.Seller, item.Name, testNow)
	require.NoError(t, err)
	require.NoError(t, f.store.Carts().Create(context.Background(), l))
	return l
}

// rawLine stores a line without resolving the item, so it may dangle.
func (f *fixture) rawLine(t *testing.T, cartID string, itemRef int64, qty int) *cart.Line {
	t.Helper()
	l, err := cart.NewLine(cartID, itemRef, qty, "ghost", "Ghost", testNow)
	require.NoError(t, err)
	require.NoError(t, f.store.Carts().Create(context.Background(), l))
	return l
}

// countingUoW counts transactions and can force every commit to fail.
type countingUoW struct {
	ports.UnitOfWork
	mu        sync.Mutex
	begins    int
	commitErr error
}

func (u *countingUoW) Begin(ctx context.Context) (ports.Tx, error) {
	u.mu.Lock()
	u.begins++
	u.mu.Unlock()
	tx, err := u.UnitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &failingTx{Tx: tx, err: u.commitErr}, nil
}

func (u *countingUoW) Begins() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.begins
}

type failingTx struct {
	ports.Tx
	err error
}

func (t *failingTx) Commit(ctx context.Context) error {
	if t.err != nil {
		_ = t.Tx.Rollback(ctx)
		return t.err
	}
	return t.Tx.Commit(ctx)
}

// barrierUoW holds the first n commits until all n transactions reached commit,
// so they are guaranteed to have read the same versions.
type barrierUoW struct {
	ports.UnitOfWork
	mu      sync.Mutex
	waiting int
	gate    sync.WaitGroup
	begins  int
}

func newBarrierUoW(inner ports.UnitOfWork, n int) *barrierUoW {
	b := &barrierUoW{UnitOfWork: inner, waiting: n}
	b.gate.Add(n)
	return b
}

func (b *barrierUoW) Begin(ctx context.Context) (ports.Tx, error) {
	b.mu.Lock()
	b.begins++
	b.mu.Unlock()
	tx, err := b.UnitOfWork.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &barrierTx{Tx: tx, b: b}, nil
}

type barrierTx struct {
	ports.Tx
	b *barrierUoW
}

func (t *barrierTx) Commit(ctx context.Context) error {
	t.b.mu.Lock()
	hold := t.b.waiting > 0
	if hold {
		t.b.waiting--
	}
	t.b.mu.Unlock()

	if hold {
		t.b.gate.Done()
		t.b.gate.Wait()
	}
	return t.Tx.Commit(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sale.CheckoutCompleted
	err    error
}

func (p *recordingPublisher) PublishCheckoutCompleted(ctx context.Context, event sale.CheckoutCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type recordingMetrics struct {
	mu        sync.Mutex
	attempts  int
	conflicts int
	successes int
	failures  []string
}

func (m *recordingMetrics) RecordAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
}

func (m *recordingMetrics) RecordConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *recordingMetrics) RecordSuccess(*sale.CheckoutResult, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes++
}

func (m *recordingMetrics) RecordFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, reason)
}

type fixedIDs struct{}

func (fixedIDs) NewCartID() string    { return "cart-fixed" }
func (fixedIDs) NewSessionID() string { return "session-fixed" }
func (fixedIDs) NewEventID() string   { return "event-fixed" }

var errStoreDown = errors.New("store down")
