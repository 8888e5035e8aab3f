package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ToFiber maps a domain error onto the *fiber.Error the app ErrorHandler
// renders. Unknown errors are returned unchanged so they surface as 500.
func ToFiber(err error) error {
	if err == nil {
		return nil
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return fiber.NewError(fiber.StatusBadRequest, verr.Error())
	}

	var insufficient *InsufficientStock
	if errors.As(err, &insufficient) {
		return fiber.NewError(fiber.StatusConflict, insufficient.Error())
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateVariant):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidReason):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrQuantityReadOnly):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
