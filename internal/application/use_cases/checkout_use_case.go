package use_cases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuzvak/salesboard-service/internal/application/ports"
	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
	"github.com/yuzvak/salesboard-service/internal/domain/inventory"
	"github.com/yuzvak/salesboard-service/internal/domain/sale"
	"github.com/yuzvak/salesboard-service/internal/pkg/clock"
	"github.com/yuzvak/salesboard-service/internal/pkg/generator"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

type CheckoutConfig struct {
	RetryAttempts int
	RetryBackoff  time.Duration
	LockTTL       time.Duration
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		RetryAttempts: 3,
		RetryBackoff:  50 * time.Millisecond,
		LockTTL:       5 * time.Second,
	}
}

// CheckoutUseCase turns every line of a cart into a sale record and an inventory
// decrement inside one transaction.
type CheckoutUseCase struct {
	uow       ports.UnitOfWork
	locker    ports.Locker
	publisher ports.EventPublisher
	metrics   ports.CheckoutMetrics
	ids       generator.IDGenerator
	clock     clock.Clock
	log       *logger.Logger
	cfg       CheckoutConfig
}

// NewCheckoutUseCase wires the engine. locker, publisher and metrics may be nil.
func NewCheckoutUseCase(
	uow ports.UnitOfWork,
	locker ports.Locker,
	publisher ports.EventPublisher,
	metrics ports.CheckoutMetrics,
	ids generator.IDGenerator,
	clk clock.Clock,
	log *logger.Logger,
	cfg CheckoutConfig,
) *CheckoutUseCase {
	if metrics == nil {
		metrics = nopCheckoutMetrics{}
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if ids == nil {
		ids = generator.NewUUIDGenerator()
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return &CheckoutUseCase{
		uow:       uow,
		locker:    locker,
		publisher: publisher,
		metrics:   metrics,
		ids:       ids,
		clock:     clk,
		log:       log,
		cfg:       cfg,
	}
}

func (uc *CheckoutUseCase) Execute(ctx context.Context, cartID, buyer string) (*sale.CheckoutResult, error) {
	if strings.TrimSpace(buyer) == "" {
		return nil, domainErrors.ErrUnauthenticated
	}

	uc.metrics.RecordAttempt()
	start := uc.clock.Now()
	log := uc.log.With("cart_id", cartID, "buyer", buyer)

	if cartID == "" {
		result := &sale.CheckoutResult{Buyer: buyer, Sales: []*sale.Record{}}
		uc.metrics.RecordSuccess(result, 0)
		return result, nil
	}

	if uc.locker != nil {
		lockKey := fmt.Sprintf("checkout:%s", cartID)
		release, ok, err := uc.locker.Acquire(ctx, lockKey, uc.cfg.LockTTL)
		if err != nil {
			log.Error("Failed to acquire lock", "error", err, "lock_key", lockKey)
			uc.metrics.RecordFailure("lock_error")
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !ok {
			uc.metrics.RecordFailure("in_progress")
			return nil, domainErrors.ErrCheckoutInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Error("Failed to release lock", "error", err, "lock_key", lockKey)
			}
		}()
	}

	var (
		result *sale.CheckoutResult
		err    error
	)
	for attempt := 1; attempt <= uc.cfg.RetryAttempts; attempt++ {
		result, err = uc.attemptCheckout(ctx, cartID, buyer)
		if err == nil {
			result.Attempts = attempt
			break
		}

		if isBusinessLogicError(err) || !errors.Is(err, domainErrors.ErrConcurrencyConflict) {
			break
		}

		uc.metrics.RecordConflict()
		log.Warn("Checkout attempt conflicted", "attempt", attempt, "error", err)

		if attempt < uc.cfg.RetryAttempts {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
				break
			}
			uc.clock.Sleep(uc.cfg.RetryBackoff * time.Duration(attempt))
		}
	}

	if err != nil {
		if errors.Is(err, domainErrors.ErrConcurrencyConflict) {
			err = fmt.Errorf("checkout gave up after %d attempts: %w", uc.cfg.RetryAttempts, err)
		}
		reason := failureReason(err)
		uc.metrics.RecordFailure(reason)
		if isBusinessLogicError(err) {
			log.Warn("Checkout rejected", "reason", reason, "error", err)
		} else {
			log.Error("Checkout failed", "reason", reason, "error", err)
		}
		return nil, err
	}

	uc.metrics.RecordSuccess(result, uc.clock.Now().Sub(start))
	log.Info("Checkout completed",
		"lines", result.LinesConsumed,
		"units", result.TotalUnits(),
		"attempts", result.Attempts,
	)

	if !result.Empty() {
		uc.publish(ctx, result, log)
	}

	return result, nil
}

func (uc *CheckoutUseCase) attemptCheckout(ctx context.Context, cartID, buyer string) (*sale.CheckoutResult, error) {
	result := &sale.CheckoutResult{
		CartID: cartID,
		Buyer:  buyer,
		Sales:  []*sale.Record{},
	}

	err := ports.RunInTx(ctx, uc.uow, func(tx ports.Tx) error {
		lines, err := tx.Carts().ListByCart(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to list cart lines: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}

		now := uc.clock.Now()
		items := make(map[int64]*inventory.Item)
		touched := make([]int64, 0, len(lines))

		for _, line := range lines {
			item, ok := items[line.ItemRef]
			if !ok {
				item, err = tx.Inventory().GetByID(ctx, line.ItemRef)
				if errors.Is(err, domainErrors.ErrNotFound) {
					return fmt.Errorf("%w: cart line %d references item %d: %w",
						domainErrors.ErrDataIntegrity, line.ID, line.ItemRef, err)
				}
				if err != nil {
					return fmt.Errorf("failed to get inventory item %d: %w", line.ItemRef, err)
				}
				items[line.ItemRef] = item
				touched = append(touched, line.ItemRef)
			}

			if err := item.Decrement(line.Quantity); err != nil {
				return fmt.Errorf("item %d for cart line %d: %w", line.ItemRef, line.ID, err)
			}

			record := sale.FromCartLine(buyer, line, now)
			if err := tx.Sales().Create(ctx, record); err != nil {
				return fmt.Errorf("failed to create sale record: %w", err)
			}

			if err := tx.Carts().Delete(ctx, line.ID); err != nil {
				if errors.Is(err, domainErrors.ErrNotFound) {
					return fmt.Errorf("cart line %d removed concurrently: %w", line.ID, domainErrors.ErrConcurrencyConflict)
				}
				return fmt.Errorf("failed to delete cart line %d: %w", line.ID, err)
			}

			result.Sales = append(result.Sales, record)
		}

		for _, id := range touched {
			if err := tx.Inventory().Update(ctx, items[id]); err != nil {
				return fmt.Errorf("failed to update inventory item %d: %w", id, err)
			}
		}

		result.LinesConsumed = len(lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *CheckoutUseCase) publish(ctx context.Context, result *sale.CheckoutResult, log *logger.Logger) {
	if uc.publisher == nil {
		return
	}
	event := sale.NewCheckoutCompleted(uc.ids.NewEventID(), result, uc.clock.Now())
	if err := uc.publisher.PublishCheckoutCompleted(context.WithoutCancel(ctx), event); err != nil {
		log.Error("Failed to publish checkout event", "error", err, "event_id", event.EventID)
	}
}

func isBusinessLogicError(err error) bool {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound),
		errors.Is(err, domainErrors.ErrInsufficientStock),
		errors.Is(err, domainErrors.ErrValidation),
		errors.Is(err, domainErrors.ErrUnauthenticated),
		errors.Is(err, domainErrors.ErrDataIntegrity):
		return true
	default:
		return false
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, domainErrors.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domainErrors.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, domainErrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, domainErrors.ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

type nopCheckoutMetrics struct{}

func (nopCheckoutMetrics) RecordAttempt()                                    {}
func (nopCheckoutMetrics) RecordConflict()                                   {}
func (nopCheckoutMetrics) RecordSuccess(*sale.CheckoutResult, time.Duration) {}
func (nopCheckoutMetrics) RecordFailure(string)                              {}
