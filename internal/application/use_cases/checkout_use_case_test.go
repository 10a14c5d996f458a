package use_cases

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/persistence/memory"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

func newCheckout(f *fixture, uow ports.UnitOfWork, locker ports.Locker, pub ports.EventPublisher, m ports.CheckoutMetrics) *CheckoutUseCase {
	cfg := CheckoutConfig{RetryAttempts: 3, RetryBackoff: 10 * time.Millisecond, LockTTL: time.Second}
	return NewCheckoutUseCase(uow, locker, pub, m, fixedIDs{}, f.clock, logger.Discard(), cfg)
}

func TestCheckoutConservesInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	b := f.item(t, "Vase", "dave", 20)
	f.line(t, "cart-1", a, 3)
	f.line(t, "cart-1", b, 5)

	uc := newCheckout(f, f.store, nil, nil, nil)
	result, err := uc.Execute(ctx, "cart-1", "carol")
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, 7, snap.Items[a.ID].Quantity)
	assert.Equal(t, 15, snap.Items[b.ID].Quantity)

	require.Len(t, snap.Sales, 2)
	assert.Equal(t, "carol", snap.Sales[0].Buyer)
	assert.Equal(t, "alice", snap.Sales[0].Seller)
	assert.Equal(t, "Lamp", snap.Sales[0].Name)
	assert.Equal(t, a.ID, snap.Sales[0].ItemRef)
	assert.Equal(t, 3, snap.Sales[0].Quantity)
	assert.Equal(t, "dave", snap.Sales[1].Seller)
	assert.Equal(t, b.ID, snap.Sales[1].ItemRef)
	assert.Equal(t, 5, snap.Sales[1].Quantity)

	assert.Equal(t, 2, result.LinesConsumed)
	assert.Equal(t, 8, result.TotalUnits())
	assert.Equal(t, 1, result.Attempts)

	lines, err := f.store.Carts().ListByCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Empty(t, lines, "consumed lines are deleted")
}

func TestCheckoutSharesItemAcrossLines(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 2)
	f.line(t, "cart-1", a, 4)

	_, err := newCheckout(f, f.store, nil, nil, nil).Execute(context.Background(), "cart-1", "carol")
	require.NoError(t, err)

	snap := f.store.Snapshot()
	assert.Equal(t, 4, snap.Items[a.ID].Quantity)
	assert.Equal(t, int64(2), snap.Items[a.ID].Version, "item written once per checkout")
	assert.Len(t, snap.Sales, 2)
}

func TestCheckoutEmptyCartIsNoOp(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	m := &recordingMetrics{}
	pub := &recordingPublisher{}

	uc := newCheckout(f, f.store, nil, pub, m)

	for _, cartID := range []string{"cart-empty", ""} {
		result, err := uc.Execute(context.Background(), cartID, "carol")
		require.NoError(t, err)
		assert.True(t, result.Empty())
		assert.Empty(t, result.Sales)
	}

	snap := f.store.Snapshot()
	assert.Equal(t, 10, snap.Items[a.ID].Quantity)
	assert.Equal(t, int64(1), snap.Items[a.ID].Version)
	assert.Empty(t, snap.Sales)
	assert.Empty(t, pub.events, "no event for an empty checkout")
	assert.Equal(t, 2, m.successes)
}

func TestCheckoutIsAtomicWhenItemMissing(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	c := f.item(t, "Cup", "alice", 10)
	f.line(t, "cart-1", a, 1)
	f.rawLine(t, "cart-1", 999, 1)
	f.line(t, "cart-1", c, 1)

	uow := &countingUoW{UnitOfWork: f.store}
	_, err := newCheckout(f, uow, nil, nil, nil).Execute(context.Background(), "cart-1", "carol")

	require.Error(t, err)
	assert.ErrorIs(t, err, domainErrors.ErrDataIntegrity)
	assert.ErrorIs(t, err, domainErrors.ErrItemNotFound)
	assert.Equal(t, 1, uow.Begins(), "data integrity failures are not retried")

	snap := f.store.Snapshot()
	assert.Equal(t, 10, snap.Items[a.ID].Quantity)
	assert.Equal(t, 10, snap.Items[c.ID].Quantity)
	assert.Equal(t, int64(1), snap.Items[a.ID].Version)
	assert.Empty(t, snap.Sales)
	assert.Len(t, snap.Lines, 3, "cart lines survive a failed checkout")
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 2)
	b := f.item(t, "Vase", "alice", 5)
	f.line(t, "cart-1", b, 1)
	f.line(t, "cart-1", a, 3)

	m := &recordingMetrics{}
	uow := &countingUoW{UnitOfWork: f.store}
	_, err := newCheckout(f, uow, nil, nil, m).Execute(context.Background(), "cart-1", "carol")

	assert.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
	assert.False(t, domainErrors.IsRetryable(err))
	assert.Equal(t, 1, uow.Begins())
	assert.Equal(t, []string{"insufficient_stock"}, m.failures)

	snap := f.store.Snapshot()
	assert.Equal(t, 2, snap.Items[a.ID].Quantity)
	assert.Equal(t, 5, snap.Items[b.ID].Quantity)
	assert.Empty(t, snap.Sales)
}

func TestCheckoutRequiresBuyer(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 1)

	uow := &countingUoW{UnitOfWork: f.store}
	_, err := newCheckout(f, uow, nil, nil, nil).Execute(context.Background(), "cart-1", "  ")

	assert.ErrorIs(t, err, domainErrors.ErrUnauthenticated)
	assert.Zero(t, uow.Begins())
}

func TestConcurrentCheckoutsDoNotLoseUpdates(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 1)
	f.line(t, "cart-2", a, 1)

	uow := newBarrierUoW(f.store, 2)
	m := &recordingMetrics{}
	uc := newCheckout(f, uow, nil, nil, m)

	results := make([]*sale.CheckoutResult, 2)
	var g errgroup.Group
	for i, cartID := range []string{"cart-1", "cart-2"} {
		i, cartID := i, cartID
		g.Go(func() error {
			r, err := uc.Execute(context.Background(), cartID, fmt.Sprintf("buyer-%d", i))
			results[i] = r
			return err
		})
	}
	require.NoError(t, g.Wait())

	snap := f.store.Snapshot()
	assert.Equal(t, 8, snap.Items[a.ID].Quantity)
	assert.Len(t, snap.Sales, 2)
	assert.Equal(t, 3, results[0].Attempts+results[1].Attempts)
	assert.Equal(t, 1, m.conflicts)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, f.clock.Sleeps())
}

func TestCheckoutSameCartTwiceDoesNotDoubleSell(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 4)

	uow := newBarrierUoW(f.store, 2)
	uc := newCheckout(f, uow, nil, nil, nil)

	results := make([]*sale.CheckoutResult, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			r, err := uc.Execute(context.Background(), "cart-1", "carol")
			results[i] = r
			return err
		})
	}
	require.NoError(t, g.Wait())

	snap := f.store.Snapshot()
	assert.Equal(t, 6, snap.Items[a.ID].Quantity)
	assert.Len(t, snap.Sales, 1)
	assert.Equal(t, 1, results[0].LinesConsumed+results[1].LinesConsumed)
}

func TestCheckoutGivesUpAfterRetries(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 1)

	uow := &countingUoW{UnitOfWork: f.store, commitErr: domainErrors.ErrConcurrencyConflict}
	m := &recordingMetrics{}
	_, err := newCheckout(f, uow, nil, nil, m).Execute(context.Background(), "cart-1", "carol")

	assert.ErrorIs(t, err, domainErrors.ErrConcurrencyConflict)
	assert.True(t, domainErrors.IsRetryable(err))
	assert.Equal(t, 3, uow.Begins())
	assert.Equal(t, 3, m.conflicts)
	assert.Equal(t, []string{"conflict"}, m.failures)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, f.clock.Sleeps())
	assert.Equal(t, 10, f.store.Snapshot().Items[a.ID].Quantity)
}

func TestCheckoutDoesNotRetryStoreFailures(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 1)

	uow := &countingUoW{UnitOfWork: f.store, commitErr: errStoreDown}
	_, err := newCheckout(f, uow, nil, nil, nil).Execute(context.Background(), "cart-1", "carol")

	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, uow.Begins())
	assert.Empty(t, f.clock.Sleeps())
}

func TestCheckoutRefusesWhileLocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 1)

	locker := memory.NewLocker()
	release, ok, err := locker.Acquire(ctx, "checkout:cart-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	uc := newCheckout(f, f.store, locker, nil, nil)
	_, err = uc.Execute(ctx, "cart-1", "carol")
	assert.ErrorIs(t, err, domainErrors.ErrCheckoutInProgress)
	assert.Equal(t, 10, f.store.Snapshot().Items[a.ID].Quantity)

	require.NoError(t, release(ctx))
	_, err = uc.Execute(ctx, "cart-1", "carol")
	require.NoError(t, err)

	_, ok, _ = locker.Acquire(ctx, "checkout:cart-1", time.Minute)
	assert.True(t, ok, "lock released after checkout")
}

func TestCheckoutPublishesEventBestEffort(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 2)

	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	result, err := newCheckout(f, f.store, nil, pub, nil).Execute(context.Background(), "cart-1", "carol")
	require.NoError(t, err, "publish failures never fail a committed checkout")

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "event-fixed", ev.EventID)
	assert.Equal(t, "cart-1", ev.CartID)
	assert.Equal(t, "carol", ev.Buyer)
	assert.Equal(t, 2, ev.TotalUnits)
	assert.Equal(t, result.Sales, ev.Sales)
}

func TestCheckoutStopsOnCancelledContext(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 10)
	f.line(t, "cart-1", a, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCheckout(f, f.store, nil, nil, nil).Execute(ctx, "cart-1", "carol")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, f.store.Snapshot().Items[a.ID].Quantity)
}
