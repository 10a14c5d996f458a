package use_cases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

func TestCartGetLineChecksOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 5)
	line := f.line(t, "cart-1", a, 1)
	uc := NewCartUseCase(f.store.Carts(), logger.Discard())

	got, err := uc.GetLine(ctx, "cart-1", line.ID)
	require.NoError(t, err)
	assert.Equal(t, line, got)

	_, err = uc.GetLine(ctx, "cart-2", line.ID)
	assert.ErrorIs(t, err, domainErrors.ErrCartLineNotFound)

	_, err = uc.GetLine(ctx, "", line.ID)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestCartListLines(t *testing.T) {
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 5)
	f.line(t, "cart-1", a, 1)
	f.line(t, "cart-1", a, 2)
	f.line(t, "cart-2", a, 3)
	uc := NewCartUseCase(f.store.Carts(), logger.Discard())

	lines, err := uc.ListLines(context.Background(), "cart-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	lines, err = uc.ListLines(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartUpdateLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 5)
	line := f.line(t, "cart-1", a, 1)
	uc := NewCartUseCase(f.store.Carts(), logger.Discard())

	updated, err := uc.UpdateLine(ctx, UpdateLineInput{CartID: "cart-1", LineID: line.ID, Quantity: 3, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, int64(2), updated.Version)

	_, err = uc.UpdateLine(ctx, UpdateLineInput{CartID: "cart-1", LineID: line.ID, Quantity: 4, Version: 1})
	assert.ErrorIs(t, err, domainErrors.ErrConcurrencyConflict, "stale edit is not silently retried")

	_, err = uc.UpdateLine(ctx, UpdateLineInput{CartID: "cart-9", LineID: line.ID, Quantity: 4})
	assert.ErrorIs(t, err, domainErrors.ErrCartLineNotFound)

	_, err = uc.UpdateLine(ctx, UpdateLineInput{CartID: "cart-1", LineID: line.ID, Quantity: 0})
	var ve *domainErrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, ve.Input["quantity"])

	got, err := f.store.Carts().GetByID(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
}

func TestCartUpdateLineReportsNotFoundWhenDeletedConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.item(t, "Lamp", "alice", 5)
	line := f.line(t, "cart-1", a, 1)

	repo := &vanishingRepo{CartRepository: f.store.Carts()}
	uc := NewCartUseCase(repo, logger.Discard())

	_, err := uc.UpdateLine(ctx, UpdateLineInput{CartID: "cart-1", LineID: line.ID, Quantity: 2})
	assert.ErrorIs(t, err, domainErrors.ErrCartLineNotFound)
}

// vanishingRepo deletes the line right before Update runs, simulating a delete
// that lands between read and write.
type vanishingRepo struct {
	ports.CartRepository
}

func (r *vanishingRepo) Update(ctx context.Context, line *cart.Line) error {
	if err := r.CartRepository.Delete(ctx, line.ID); err != nil {
		return err
	}
	return r.CartRepository.Update(ctx, line)
}
