// Package registry owns the descriptive attributes of gifts, apparel
// products and apparel variants. It never writes quantity after creation;
// that is the ledger's job.
package registry

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/catalog"
)

// Actor identifies who made a change, for audit rows and created/updated-by.
type Actor struct {
	UserID *uint
	Name   string
}

type Registry struct {
	db      *gorm.DB
	catalog catalog.Store
	logger  *zap.Logger
}

func New(db *gorm.DB, cat catalog.Store, logger *zap.Logger) *Registry {
	return &Registry{db: db, catalog: cat, logger: logger.Named("registry")}
}

// resolveRef turns a catalog miss into a validation error on field.
func resolveRef[T any](ctx context.Context, field string, id uint, resolve func(context.Context, uint) (T, error)) error {
	if id == 0 {
		return apperr.Invalid(field, "is required")
	}
	_, err := resolve(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid(field, fmt.Sprintf("unknown id %d", id))
	}
	return err
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, apperr.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}

func threshold(v *int, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	if *v < 0 {
		return 0, apperr.Invalid("minimum_threshold", "must not be negative")
	}
	return *v, nil
}
