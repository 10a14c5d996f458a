package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

func TestNewLine(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	line, err := NewLine("cart-1", 7, 3, "alice", "Lamp", now)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", line.CartID)
	assert.Equal(t, int64(7), line.ItemRef)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, now, line.CreatedAt)
}

func TestNewLineRejectsBadInput(t *testing.T) {
	_, err := NewLine("", 0, 0, "alice", "Lamp", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrValidation))

	var ve *domainErrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "cart_id")
	assert.Contains(t, ve.Fields, "item_id")
	assert.Contains(t, ve.Fields, "quantity")
	assert.Equal(t, 0, ve.Input["quantity"])
}

func TestBelongsTo(t *testing.T) {
	line := &Line{CartID: "cart-1"}
	assert.True(t, line.BelongsTo("cart-1"))
	assert.False(t, line.BelongsTo("cart-2"))
	assert.False(t, (&Line{}).BelongsTo(""))
}
