// Package apperr holds the error taxonomy shared by the registry, the ledger
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"

	"inventory-backend/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReason    = errors.New("reason does not apply to this item")
	ErrDuplicateVariant = errors.New("variant with this size and color already exists for the product")
	ErrQuantityReadOnly = errors.New("quantity can only change through take/return")
)

// ValidationError reports malformed input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// InsufficientStock is returned when a take asks for more than is on hand.
type InsufficientStock struct {
	Kind      models.EntityKind
	EntityID  uint
	Requested int
	Available int
}

func (e *InsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock for %s %d: requested %d, available %d",
		e.Kind, e.EntityID, e.Requested, e.Available)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsInsufficientStock(err error) bool {
	var s *InsufficientStock
	return errors.As(err, &s)
}
