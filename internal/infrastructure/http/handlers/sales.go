package handlers

import (
	"context"
	"net/http"

	"github.com/yuzvak/salesboard-service/internal/application/use_cases"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/response"
)

type SalesHandler struct {
	ledger *use_cases.LedgerUseCase
}

func NewSalesHandler(ledger *use_cases.LedgerUseCase) *SalesHandler {
	return &SalesHandler{ledger: ledger}
}

type listFunc func(ctx context.Context, who string, limit, offset int) ([]*sale.Record, error)

func (h *SalesHandler) list(w http.ResponseWriter, r *http.Request, fn listFunc) {
	p, err := principal(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	records, err := fn(r.Context(), p.DisplayName(), limit, offset)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, records)
}

// HandlePurchases lists what the caller bought.
func (h *SalesHandler) HandlePurchases(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.ledger.ListByBuyer)
}

// HandleSold lists what the caller sold.
func (h *SalesHandler) HandleSold(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.ledger.ListBySeller)
}
