package apperr

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-backend/internal/models"
)

func TestToFiber(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", Invalid("quantity", "must be greater than 0"), fiber.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("take: %w", Invalid("reason_id", "required")), fiber.StatusBadRequest},
		{"insufficient", &InsufficientStock{Kind: models.KindGift, EntityID: 1, Requested: 5, Available: 3}, fiber.StatusConflict},
		{"not found", fmt.Errorf("gift 4: %w", ErrNotFound), fiber.StatusNotFound},
		{"duplicate", ErrDuplicateVariant, fiber.StatusConflict},
		{"reason", ErrInvalidReason, fiber.StatusUnprocessableEntity},
		{"read only", ErrQuantityReadOnly, fiber.StatusBadRequest},
		{"fiber passthrough", fiber.NewError(fiber.StatusTeapot, "x"), fiber.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fe *fiber.Error
			require.ErrorAs(t, ToFiber(tt.err), &fe)
			assert.Equal(t, tt.code, fe.Code)
		})
	}
}

func TestToFiberUnknownPassesThrough(t *testing.T) {
	err := fmt.Errorf("boom")
	assert.Equal(t, err, ToFiber(err))
	assert.NoError(t, ToFiber(nil))
}

func TestInsufficientStockMessageCarriesBothQuantities(t *testing.T) {
	err := &InsufficientStock{Kind: models.KindVariant, EntityID: 9, Requested: 6, Available: 5}
	assert.Equal(t, "insufficient stock for variant 9: requested 6, available 5", err.Error())
	assert.True(t, IsInsufficientStock(fmt.Errorf("wrap: %w", err)))
	assert.False(t, IsValidation(err))
}
