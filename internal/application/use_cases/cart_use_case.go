package use_cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type UpdateLineInput struct {
	CartID   string
	LineID   int64
	Quantity int
	// Version is the version the caller last saw. Zero skips the staleness check.
	Version int64
}

type CartUseCase struct {
	carts ports.CartRepository
	log   *logger.Logger
}

func NewCartUseCase(carts ports.CartRepository, log *logger.Logger) *CartUseCase {
	return &CartUseCase{
		carts: carts,
		log:   log,
	}
}

func (uc *CartUseCase) ListLines(ctx context.Context, cartID string) ([]*cart.Line, error) {
	if cartID == "" {
		return []*cart.Line{}, nil
	}
	lines, err := uc.carts.ListByCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	return lines, nil
}

// GetLine returns the line only when it belongs to cartID.
func (uc *CartUseCase) GetLine(ctx context.Context, cartID string, id int64) (*cart.Line, error) {
	line, err := uc.carts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !line.BelongsTo(cartID) {
		return nil, domainErrors.ErrCartLineNotFound
	}
	return line, nil
}

func (uc *CartUseCase) UpdateLine(ctx context.Context, in UpdateLineInput) (*cart.Line, error) {
	if in.Quantity <= 0 {
		return nil, domainErrors.NewValidationError(
			map[string]string{"quantity": "quantity must be greater than 0"},
			map[string]interface{}{"id": in.LineID, "quantity": in.Quantity, "version": in.Version},
		)
	}

	line, err := uc.GetLine(ctx, in.CartID, in.LineID)
	if err != nil {
		return nil, err
	}
	if in.Version != 0 {
		line.Version = in.Version
	}
	line.Quantity = in.Quantity

	if err := uc.carts.Update(ctx, line); err != nil {
		if !errors.Is(err, domainErrors.ErrConcurrencyConflict) {
			return nil, fmt.Errorf("failed to update cart line: %w", err)
		}
		exists, existsErr := uc.carts.Exists(ctx, in.LineID)
		if existsErr != nil {
			return nil, fmt.Errorf("failed to re-check cart line: %w", existsErr)
		}
		if !exists {
			return nil, domainErrors.ErrCartLineNotFound
		}
		uc.log.Warn("Cart line edited concurrently", "line_id", in.LineID, "cart_id", in.CartID)
		return nil, err
	}

	return line, nil
}
