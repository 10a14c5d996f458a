package commands

import (
	"context"
	"fmt"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type ClearCartCommand struct {
	Session ports.Session
}

type ClearCartResponse struct {
	CartID       string `json:"cart_id"`
	LinesRemoved int    `json:"lines_removed"`
}

// ClearCartHandler drops every line of the session's cart without selling anything
// and detaches the cart from the session.
type ClearCartHandler struct {
	carts   ports.CartRepository
	metrics ports.CartMetrics
	log     *logger.Logger
}

func NewClearCartHandler(carts ports.CartRepository, metrics ports.CartMetrics, log *logger.Logger) *ClearCartHandler {
	if metrics == nil {
		metrics = nopCartMetrics{}
	}
	return &ClearCartHandler{
		carts:   carts,
		metrics: metrics,
		log:     log,
	}
}

func (h *ClearCartHandler) Handle(ctx context.Context, cmd ClearCartCommand) (*ClearCartResponse, error) {
	cartID, _, err := cmd.Session.GetString(ctx, cart.SessionKeyCartID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	removed := 0
	if cartID != "" {
		removed, err = h.carts.DeleteByCart(ctx, cartID)
		if err != nil {
			return nil, fmt.Errorf("failed to clear cart: %w", err)
		}
		for i := 0; i < removed; i++ {
			h.metrics.RecordLineRemoved()
		}
	}

	if err := cmd.Session.SetString(ctx, cart.SessionKeyCartID, ""); err != nil {
		h.log.Error("Failed to clear session cart id", "error", err, "session_id", cmd.Session.ID())
	}
	if err := cmd.Session.SetInt(ctx, cart.SessionKeyCartCount, 0); err != nil {
		h.log.Error("Failed to reset session cart count", "error", err, "session_id", cmd.Session.ID())
	}

	h.log.Info("Cart cleared", "cart_id", cartID, "lines_removed", removed)

	return &ClearCartResponse{CartID: cartID, LinesRemoved: removed}, nil
}
