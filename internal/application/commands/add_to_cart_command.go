package commands

import (
	"context"
	"fmt"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/pkg/clock"
	"github.com/yuzvak/salesboard-service/internal/pkg/generator"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type AddToCartCommand struct {
	Session  ports.Session
	ItemID   int64
	Quantity int
}

type AddToCartResponse struct {
	Line      *cart.Line `json:"line"`
	CartID    string     `json:"cart_id"`
	CartCount int        `json:"cart_count"`
}

type AddToCartHandler struct {
	repos   ports.Repositories
	ids     generator.IDGenerator
	clock   clock.Clock
	metrics ports.CartMetrics
	log     *logger.Logger
}

func NewAddToCartHandler(
	repos ports.Repositories,
	ids generator.IDGenerator,
	clk clock.Clock,
	metrics ports.CartMetrics,
	log *logger.Logger,
) *AddToCartHandler {
	if metrics == nil {
		metrics = nopCartMetrics{}
	}
	return &AddToCartHandler{
		repos:   repos,
		ids:     ids,
		clock:   clk,
		metrics: metrics,
		log:     log,
	}
}

func (h *AddToCartHandler) Handle(ctx context.Context, cmd AddToCartCommand) (*AddToCartResponse, error) {
	if cmd.Quantity <= 0 || cmd.ItemID <= 0 {
		fields := make(map[string]string)
		if cmd.ItemID <= 0 {
			fields["item_id"] = "item id must be positive"
		}
		if cmd.Quantity <= 0 {
			fields["quantity"] = "quantity must be greater than 0"
		}
		return nil, domainErrors.NewValidationError(fields, map[string]interface{}{
			"item_id":  cmd.ItemID,
			"quantity": cmd.Quantity,
		})
	}

	item, err := h.repos.Inventory().GetByID(ctx, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if cmd.Quantity > item.Quantity {
		return nil, fmt.Errorf("item %d has %d in stock, requested %d: %w",
			item.ID, item.Quantity, cmd.Quantity, domainErrors.ErrInsufficientStock)
	}

	cartID, _, err := cmd.Session.GetString(ctx, cart.SessionKeyCartID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if cartID == "" {
		cartID = h.ids.NewCartID()
		if err := cmd.Session.SetString(ctx, cart.SessionKeyCartID, cartID); err != nil {
			return nil, fmt.Errorf("failed to store cart id: %w", err)
		}
	}

	line, err := cart.NewLine(cartID, item.ID, cmd.Quantity, item.Seller, item.Name, h.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := h.repos.Carts().Create(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to create cart line: %w", err)
	}
	h.metrics.RecordLineAdded()

	count, _, err := cmd.Session.GetInt(ctx, cart.SessionKeyCartCount)
	if err != nil {
		h.log.Warn("Failed to read session cart count", "error", err, "session_id", cmd.Session.ID())
	}
	count++
	if err := cmd.Session.SetInt(ctx, cart.SessionKeyCartCount, count); err != nil {
		h.log.Error("Failed to update session cart count", "error", err, "session_id", cmd.Session.ID())
	}

	h.log.Info("Item added to cart", "cart_id", cartID, "item_id", item.ID, "quantity", cmd.Quantity, "line_id", line.ID)

	return &AddToCartResponse{Line: line, CartID: cartID, CartCount: count}, nil
}
