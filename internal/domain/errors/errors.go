package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	ErrCartLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("inventory item %w", ErrNotFound)

	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrCheckoutInProgress  = errors.New("another checkout is in progress for this cart")
	ErrInsufficientStock   = errors.New("insufficient stock")

	// ErrDataIntegrity marks stored rows that contradict each other, such as a cart
	// line pointing at an item that no longer exists.
	ErrDataIntegrity = errors.New("data integrity violation")

	ErrUnauthenticated = errors.New("authenticated buyer identity required")
	ErrValidation      = errors.New("validation failed")
)

// ValidationError describes rejected input. Input holds the values as submitted so
// the caller can correct them.
type ValidationError struct {
	Fields map[string]string
	Input  map[string]interface{}
}

func NewValidationError(fields map[string]string, input map[string]interface{}) *ValidationError {
	return &ValidationError{Fields: fields, Input: input}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrCheckoutInProgress)
}
