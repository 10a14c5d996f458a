package handlers

import (
	"net/http"

	"github.com/yuzvak/salesboard-service/internal/application/commands"
	"github.com/yuzvak/salesboard-service/internal/application/use_cases"
	"github.com/yuzvak/salesboard-service/internal/domain/cart"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/response"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type CartHandler struct {
	carts  *use_cases.CartUseCase
	add    *commands.AddToCartHandler
	remove *commands.RemoveCartLineHandler
	clear  *commands.ClearCartHandler
	log    *logger.Logger
}

func NewCartHandler(
	carts *use_cases.CartUseCase,
	add *commands.AddToCartHandler,
	remove *commands.RemoveCartLineHandler,
	clear *commands.ClearCartHandler,
	log *logger.Logger,
) *CartHandler {
	return &CartHandler{
		carts:  carts,
		add:    add,
		remove: remove,
		clear:  clear,
		log:    log,
	}
}

type CartView struct {
	CartID    string       `json:"cart_id"`
	CartCount int          `json:"cart_count"`
	Lines     []*cart.Line `json:"lines"`
}

type AddToCartRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type UpdateLineRequest struct {
	Quantity int   `json:"quantity"`
	Version  int64 `json:"version,omitempty"`
}

func (h *CartHandler) cartID(r *http.Request) (string, error) {
	s, err := session(r)
	if err != nil {
		return "", err
	}
	id, _, err := s.GetString(r.Context(), cart.SessionKeyCartID)
	return id, err
}

func (h *CartHandler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	ctx := r.Context()

	cartID, _, err := s.GetString(ctx, cart.SessionKeyCartID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	count, _, err := s.GetInt(ctx, cart.SessionKeyCartCount)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	lines, err := h.carts.ListLines(ctx, cartID)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, CartView{CartID: cartID, CartCount: count, Lines: lines})
}

func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	var req AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	resp, err := h.add.Handle(r.Context(), commands.AddToCartCommand{
		Session:  s,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.log.Warn("Add to cart failed", "item_id", req.ItemID, "error", err)
		response.WriteDomainError(w, err)
		return
	}

	response.WriteCreated(w, resp, "Item added to cart")
}

func (h *CartHandler) HandleGetLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	cartID, err := h.cartID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	line, err := h.carts.GetLine(r.Context(), cartID, id)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, line)
}

func (h *CartHandler) HandleUpdateLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	cartID, err := h.cartID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	var req UpdateLineRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	line, err := h.carts.UpdateLine(r.Context(), use_cases.UpdateLineInput{
		CartID:   cartID,
		LineID:   id,
		Quantity: req.Quantity,
		Version:  req.Version,
	})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, line, "Cart line updated")
}

func (h *CartHandler) HandleRemoveLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	s, err := session(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	resp, err := h.remove.Handle(r.Context(), commands.RemoveCartLineCommand{Session: s, LineID: id})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, resp, "Cart line removed")
}

func (h *CartHandler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	s, err := session(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	resp, err := h.clear.Handle(r.Context(), commands.ClearCartCommand{Session: s})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, resp, "Cart cleared")
}
