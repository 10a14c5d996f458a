package handlers

import (
	"net/http"

	"github.com/yuzvak/salesboard-service/internal/application/commands"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/response"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type CheckoutHandler struct {
	checkout *commands.CheckoutHandler
	log      *logger.Logger
}

func NewCheckoutHandler(checkout *commands.CheckoutHandler, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, log: log}
}

func (h *CheckoutHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	s, err := session(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	resp, err := h.checkout.Handle(r.Context(), commands.CheckoutCommand{
		Session: s,
		Buyer:   p.DisplayName(),
	})
	if err != nil {
		h.log.Error("Checkout command failed",
			"buyer", p.DisplayName(),
			"session_id", s.ID(),
			"error", err,
		)
		response.WriteDomainError(w, err)
		return
	}

	h.log.Info("Checkout completed",
		"cart_id", resp.CartID,
		"lines", resp.LinesCount,
		"units", resp.TotalUnits,
		"attempts", resp.Attempts,
	)
	response.WriteSuccess(w, resp, "Checkout completed successfully")
}
