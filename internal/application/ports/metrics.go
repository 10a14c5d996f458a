package ports

import (
	"time"

	"github.com/yuzvak/salesboard-service/internal/domain/sale"
)

// CheckoutMetrics receives checkout outcomes. Implementations must be safe for
// concurrent use.
type CheckoutMetrics interface {
	RecordAttempt()
	RecordConflict()
	RecordSuccess(result *sale.CheckoutResult, elapsed time.Duration)
	RecordFailure(reason string)
}

type CartMetrics interface {
	RecordLineAdded()
	RecordLineRemoved()
}
