package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Seller      string          `json:"seller"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewItem(name, seller, description string, price decimal.Decimal, quantity int, now time.Time) (*Item, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(name) == "" {
		fields["name"] = "name cannot be empty"
	}
	if strings.TrimSpace(seller) == "" {
		fields["seller"] = "seller cannot be empty"
	}
	if price.IsNegative() {
		fields["price"] = "price cannot be negative"
	}
	if quantity < 0 {
		fields["quantity"] = "quantity cannot be negative"
	}
	if len(fields) > 0 {
		return nil, domainErrors.NewValidationError(fields, map[string]interface{}{
			"name":        name,
			"seller":      seller,
			"description": description,
			"price":       price.String(),
			"quantity":    quantity,
		})
	}

	return &Item{
		Name:        name,
		Seller:      seller,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Decrement removes qty units from stock. Stock never goes below zero.
func (i *Item) Decrement(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement item %d by %d: %w", i.ID, qty, domainErrors.ErrValidation)
	}
	if qty > i.Quantity {
		return fmt.Errorf("item %d has %d, requested %d: %w", i.ID, i.Quantity, qty, domainErrors.ErrInsufficientStock)
	}
	i.Quantity -= qty
	return nil
}

// Restock adjusts stock by delta, which may be negative for corrections.
func (i *Item) Restock(delta int) error {
	if i.Quantity+delta < 0 {
		return fmt.Errorf("restock item %d by %d: %w", i.ID, delta, domainErrors.ErrInsufficientStock)
	}
	i.Quantity += delta
	return nil
}

func (i *Item) InStock() bool {
	return i.Quantity > 0
}

func (i *Item) Clone() *Item {
	c := *i
	return &c
}
