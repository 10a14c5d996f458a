package use_cases

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

// LedgerUseCase reads the append-only sale records.
type LedgerUseCase struct {
	sales ports.SaleRepository
}

func NewLedgerUseCase(sales ports.SaleRepository) *LedgerUseCase {
	return &LedgerUseCase{sales: sales}
}

func (uc *LedgerUseCase) ListByBuyer(ctx context.Context, buyer string, limit, offset int) ([]*sale.Record, error) {
	if strings.TrimSpace(buyer) == "" {
		return nil, domainErrors.ErrUnauthenticated
	}
	limit, offset = normalizePage(limit, offset)
	records, err := uc.sales.ListByBuyer(ctx, buyer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return records, nil
}

func (uc *LedgerUseCase) ListBySeller(ctx context.Context, seller string, limit, offset int) ([]*sale.Record, error) {
	if strings.TrimSpace(seller) == "" {
		return nil, domainErrors.ErrUnauthenticated
	}
	limit, offset = normalizePage(limit, offset)
	records, err := uc.sales.ListBySeller(ctx, seller, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return records, nil
}
