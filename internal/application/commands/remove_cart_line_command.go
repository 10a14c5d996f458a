package commands

import (
	"context"
	"fmt"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type RemoveCartLineCommand struct {
	Session ports.Session
	LineID  int64
}

type RemoveCartLineResponse struct {
	LineID    int64 `json:"line_id"`
	CartCount int   `json:"cart_count"`
}

type RemoveCartLineHandler struct {
	carts   ports.CartRepository
	metrics ports.CartMetrics
	log     *logger.Logger
}

func NewRemoveCartLineHandler(carts ports.CartRepository, metrics ports.CartMetrics, log *logger.Logger) *RemoveCartLineHandler {
	if metrics == nil {
		metrics = nopCartMetrics{}
	}
	return &RemoveCartLineHandler{
		carts:   carts,
		metrics: metrics,
		log:     log,
	}
}

func (h *RemoveCartLineHandler) Handle(ctx context.Context, cmd RemoveCartLineCommand) (*RemoveCartLineResponse, error) {
	cartID, _, err := cmd.Session.GetString(ctx, cart.SessionKeyCartID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	line, err := h.carts.GetByID(ctx, cmd.LineID)
	if err != nil {
		return nil, err
	}
	if !line.BelongsTo(cartID) {
		return nil, domainErrors.ErrCartLineNotFound
	}

	if err := h.carts.Delete(ctx, cmd.LineID); err != nil {
		return nil, err
	}
	h.metrics.RecordLineRemoved()

	previous, _, err := cmd.Session.GetInt(ctx, cart.SessionKeyCartCount)
	if err != nil {
		h.log.Warn("Failed to read session cart count", "error", err, "session_id", cmd.Session.ID())
	}

	remaining, err := h.carts.ListByCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}

	count := clampCartCount(previous-1, len(remaining))
	if err := cmd.Session.SetInt(ctx, cart.SessionKeyCartCount, count); err != nil {
		h.log.Error("Failed to update session cart count", "error", err, "session_id", cmd.Session.ID())
	}

	h.log.Info("Cart line removed", "line_id", cmd.LineID, "cart_id", cartID, "cart_count", count)

	return &RemoveCartLineResponse{LineID: cmd.LineID, CartCount: count}, nil
}

// clampCartCount keeps the session counter between zero and the lines actually present.
func clampCartCount(n, present int) int {
	if n < 0 {
		n = 0
	}
	if n > present {
		n = present
	}
	return n
}

type nopCartMetrics struct{}

func (nopCartMetrics) RecordLineAdded()   {}
func (nopCartMetrics) RecordLineRemoved() {}
