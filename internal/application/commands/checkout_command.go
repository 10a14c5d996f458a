package commands

import (
	"context"
	"fmt"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/application/use_cases"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type CheckoutCommand struct {
	Session ports.Session
	Buyer   string
}

type CheckoutResponse struct {
	CartID     string         `json:"cart_id"`
	Sales      []*sale.Record `json:"sales"`
	LinesCount int            `json:"lines_count"`
	TotalUnits int            `json:"total_units"`
	Attempts   int            `json:"attempts"`
}

// CheckoutHandler resolves the cart from the session, runs the checkout and resets
// the session cart pointer once the transaction has committed.
type CheckoutHandler struct {
	checkoutUseCase *use_cases.CheckoutUseCase
	log             *logger.Logger
}

func NewCheckoutHandler(checkoutUseCase *use_cases.CheckoutUseCase, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutUseCase: checkoutUseCase,
		log:             log,
	}
}

func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*CheckoutResponse, error) {
	cartID, _, err := cmd.Session.GetString(ctx, cart.SessionKeyCartID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	h.log.Info("Processing checkout request", "cart_id", cartID, "buyer", cmd.Buyer, "session_id", cmd.Session.ID())

	result, err := h.checkoutUseCase.Execute(ctx, cartID, cmd.Buyer)
	if err != nil {
		return nil, err
	}

	// The lines are already gone, so a stale cart id left behind here resolves to
	// an empty cart on the next request.
	if err := cmd.Session.SetString(ctx, cart.SessionKeyCartID, ""); err != nil {
		h.log.Error("Failed to clear session cart id", "error", err, "session_id", cmd.Session.ID())
	}
	if err := cmd.Session.SetInt(ctx, cart.SessionKeyCartCount, 0); err != nil {
		h.log.Error("Failed to reset session cart count", "error", err, "session_id", cmd.Session.ID())
	}

	return &CheckoutResponse{
		CartID:     result.CartID,
		Sales:      result.Sales,
		LinesCount: result.LinesConsumed,
		TotalUnits: result.TotalUnits(),
		Attempts:   result.Attempts,
	}, nil
}
