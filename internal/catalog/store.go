// Package catalog is the read-only reference data the ledger and registry
// resolve by ID: take reasons, categories, sizes and colors.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"
)

// Store resolves catalog entities by ID. Misses return apperr.ErrNotFound.
type Store interface {
	ResolveReason(ctx context.Context, id uint) (models.TakeReason, error)
	ResolveGiftCategory(ctx context.Context, id uint) (models.GiftCategory, error)
	ResolveApparelCategory(ctx context.Context, id uint) (models.ApparelCategory, error)
	ResolveColor(ctx context.Context, id uint) (models.ApparelColor, error)
	ResolveSize(ctx context.Context, id uint) (models.ApparelSize, error)
}

// GormStore reads the catalog tables directly.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ResolveReason(ctx context.Context, id uint) (models.TakeReason, error) {
	var r models.TakeReason
	return r, s.first(ctx, &r, "reason", id)
}

func (s *GormStore) ResolveGiftCategory(ctx context.Context, id uint) (models.GiftCategory, error) {
	var c models.GiftCategory
	return c, s.first(ctx, &c, "gift category", id)
}

func (s *GormStore) ResolveApparelCategory(ctx context.Context, id uint) (models.ApparelCategory, error) {
	var c models.ApparelCategory
	return c, s.first(ctx, &c, "apparel category", id)
}

func (s *GormStore) ResolveColor(ctx context.Context, id uint) (models.ApparelColor, error) {
	var c models.ApparelColor
	return c, s.first(ctx, &c, "color", id)
}

func (s *GormStore) ResolveSize(ctx context.Context, id uint) (models.ApparelSize, error) {
	var sz models.ApparelSize
	return sz, s.first(ctx, &sz, "size", id)
}

func (s *GormStore) first(ctx context.Context, dest any, what string, id uint) error {
	err := s.db.WithContext(ctx).First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load %s %d: %w", what, id, err)
	}
	return nil
}

// ListReasons returns the reasons usable in scope (plus "both"); an empty
// scope lists every reason.
func (s *GormStore) ListReasons(ctx context.Context, scope models.ReasonScope) ([]models.TakeReason, error) {
	q := s.db.WithContext(ctx).Model(&models.TakeReason{})
	if scope != "" && scope != models.ReasonScopeBoth {
		q = q.Where("applies_to IN ?", []models.ReasonScope{scope, models.ReasonScopeBoth})
	}
	var out []models.TakeReason
	return out, q.Order("name asc").Find(&out).Error
}

func (s *GormStore) ListGiftCategories(ctx context.Context) ([]models.GiftCategory, error) {
	var out []models.GiftCategory
	return out, s.db.WithContext(ctx).Order("name asc").Find(&out).Error
}

func (s *GormStore) ListApparelCategories(ctx context.Context) ([]models.ApparelCategory, error) {
	var out []models.ApparelCategory
	return out, s.db.WithContext(ctx).Order("name asc").Find(&out).Error
}

func (s *GormStore) ListSizes(ctx context.Context, sizeType models.SizeType) ([]models.ApparelSize, error) {
	q := s.db.WithContext(ctx).Model(&models.ApparelSize{})
	if sizeType != "" {
		q = q.Where("type = ?", sizeType)
	}
	var out []models.ApparelSize
	return out, q.Order("type asc, display_order asc").Find(&out).Error
}

func (s *GormStore) ListColors(ctx context.Context) ([]models.ApparelColor, error) {
	var out []models.ApparelColor
	return out, s.db.WithContext(ctx).Order("name asc").Find(&out).Error
}
