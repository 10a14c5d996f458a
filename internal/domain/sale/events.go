package sale

import "time"

const CheckoutCompletedTopic = "checkout.completed"

// CheckoutCompleted is published after a checkout transaction commits. Consumers get
// the full ledger entries so they never need to query the primary store.
type CheckoutCompleted struct {
	EventID     string    `json:"event_id"`
	CartID      string    `json:"cart_id"`
	Buyer       string    `json:"buyer"`
	Sales       []*Record `json:"sales"`
	TotalUnits  int       `json:"total_units"`
	CompletedAt time.Time `json:"completed_at"`
}

func NewCheckoutCompleted(eventID string, result *CheckoutResult, at time.Time) CheckoutCompleted {
	return CheckoutCompleted{
		EventID:     eventID,
		CartID:      result.CartID,
		Buyer:       result.Buyer,
		Sales:       result.Sales,
		TotalUnits:  result.TotalUnits(),
		CompletedAt: at,
	}
}
