package monitoring

import (
	"time"

	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

// CheckoutMetrics feeds checkout outcomes into the prometheus collectors.
type CheckoutMetrics struct{}

func NewCheckoutMetrics() *CheckoutMetrics {
	return &CheckoutMetrics{}
}

func (m *CheckoutMetrics) RecordAttempt() {
	CheckoutAttemptsTotal.Inc()
}

func (m *CheckoutMetrics) RecordConflict() {
	CheckoutConflictsTotal.Inc()
}

func (m *CheckoutMetrics) RecordSuccess(result *sale.CheckoutResult, elapsed time.Duration) {
	CheckoutSuccessTotal.Inc()
	CheckoutDuration.Observe(elapsed.Seconds())
	SaleRecordsTotal.Add(float64(len(result.Sales)))
	InventoryUnitsSoldTotal.Add(float64(result.TotalUnits()))
}

func (m *CheckoutMetrics) RecordFailure(reason string) {
	CheckoutFailureTotal.WithLabelValues(reason).Inc()
}

type CartMetrics struct{}

func NewCartMetrics() *CartMetrics {
	return &CartMetrics{}
}

func (m *CartMetrics) RecordLineAdded() {
	CartLinesAddedTotal.Inc()
}

func (m *CartMetrics) RecordLineRemoved() {
	CartLinesRemovedTotal.Inc()
}
