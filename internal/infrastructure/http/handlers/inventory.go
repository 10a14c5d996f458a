package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/salesboard-service/internal/application/use_cases"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/response"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type InventoryHandler struct {
	catalog *use_cases.CatalogUseCase
	log     *logger.Logger
}

func NewInventoryHandler(catalog *use_cases.CatalogUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{catalog: catalog, log: log}
}

type CreateItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type RestockRequest struct {
	Delta   int   `json:"delta"`
	Version int64 `json:"version,omitempty"`
}

func (h *InventoryHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := page(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	items, err := h.catalog.ListItems(r.Context(), limit, offset)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, items)
}

func (h *InventoryHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, item)
}

// HandleCreateItem lists a new item with the caller as seller.
func (h *InventoryHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	var req CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	item, err := h.catalog.CreateItem(r.Context(), use_cases.CreateItemInput{
		Name:        req.Name,
		Seller:      p.DisplayName(),
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	h.log.Info("Inventory item created", "item_id", item.ID, "seller", item.Seller)
	response.WriteCreated(w, item, "Item created")
}

func (h *InventoryHandler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	var req RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		response.WriteDomainError(w, err)
		return
	}

	item, err := h.catalog.Restock(r.Context(), use_cases.RestockInput{
		ItemID:  id,
		Delta:   req.Delta,
		Version: req.Version,
	})
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteSuccess(w, item, "Item restocked")
}
