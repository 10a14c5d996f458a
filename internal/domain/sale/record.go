package sale

import (
	"time"

	"github.com/yuzvak/salesboard-service/internal/domain/cart"
)

// Record is an append-only ledger entry for one completed transfer from seller to buyer.
type Record struct {
	ID        int64     `json:"id"`
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	Name      string    `json:"name"`
	ItemRef   int64     `json:"item_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// FromCartLine builds the sale produced by consuming line on behalf of buyer.
func FromCartLine(buyer string, line *cart.Line, now time.Time) *Record {
	return &Record{
		Buyer:     buyer,
		Seller:    line.SellerName,
		Name:      line.ItemName,
		ItemRef:   line.ItemRef,
		Quantity:  line.Quantity,
		CreatedAt: now,
	}
}

type CheckoutResult struct {
	CartID        string    `json:"cart_id"`
	Buyer         string    `json:"buyer"`
	Sales         []*Record `json:"sales"`
	LinesConsumed int       `json:"lines_consumed"`
	Attempts      int       `json:"attempts"`
}

func (r *CheckoutResult) Empty() bool {
	return r.LinesConsumed == 0
}

func (r *CheckoutResult) TotalUnits() int {
	total := 0
	for _, s := range r.Sales {
		total += s.Quantity
	}
	return total
}
