package cart

import (
	"strings"
	"time"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

// Session keys holding the cart pointer for one user session.
const (
	SessionKeyCartID    = "cartId"
	SessionKeyCartCount = "cartCount"
)

// Line is one pending entry in a session-scoped cart. Ownership is expressed only
// through CartID; there is no reference to a user.
type Line struct {
	ID         int64     `json:"id"`
	CartID     string    `json:"cart_id"`
	ItemRef    int64     `json:"item_id"`
	Quantity   int       `json:"quantity"`
	SellerName string    `json:"seller_name"`
	ItemName   string    `json:"item_name"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewLine(cartID string, itemRef int64, quantity int, sellerName, itemName string, now time.Time) (*Line, error) {
	line := &Line{
		CartID:     cartID,
		ItemRef:    itemRef,
		Quantity:   quantity,
		SellerName: sellerName,
		ItemName:   itemName,
		CreatedAt:  now,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return line, nil
}

func (l *Line) Validate() error {
	fields := make(map[string]string)
	if strings.TrimSpace(l.CartID) == "" {
		fields["cart_id"] = "cart id cannot be empty"
	}
	if l.ItemRef <= 0 {
		fields["item_id"] = "item id must be positive"
	}
	if l.Quantity <= 0 {
		fields["quantity"] = "quantity must be greater than 0"
	}
	if len(fields) > 0 {
		return domainErrors.NewValidationError(fields, map[string]interface{}{
			"cart_id":  l.CartID,
			"item_id":  l.ItemRef,
			"quantity": l.Quantity,
		})
	}
	return nil
}

func (l *Line) BelongsTo(cartID string) bool {
	return cartID != "" && l.CartID == cartID
}

// Clone returns a copy so stores never hand out their own instances.
func (l *Line) Clone() *Line {
	c := *l
	return &c
}
