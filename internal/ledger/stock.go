package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"
)

// level is the stock-relevant slice of a gift or variant row.
type level struct {
	Quantity         int
	MinimumThreshold int
	ProductID        *uint
}

func (l level) StockLevel() (int, int) { return l.Quantity, l.MinimumThreshold }

func modelFor(kind models.EntityKind) any {
	if kind == models.KindVariant {
		return &models.ApparelVariant{}
	}
	return &models.Gift{}
}

// load reads the live (not soft-deleted) row for kind/id.
func load(tx *gorm.DB, kind models.EntityKind, id uint) (level, error) {
	var (
		out level
		err error
	)
	switch kind {
	case models.KindGift:
		var g models.Gift
		err = tx.Select("id", "quantity", "minimum_threshold").First(&g, id).Error
		out = level{Quantity: g.Quantity, MinimumThreshold: g.MinimumThreshold}
	case models.KindVariant:
		var v models.ApparelVariant
		err = tx.Select("id", "product_id", "quantity", "minimum_threshold").First(&v, id).Error
		pid := v.ProductID
		out = level{Quantity: v.Quantity, MinimumThreshold: v.MinimumThreshold, ProductID: &pid}
	default:
		return level{}, apperr.Invalid("kind", "must be gift or variant")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return level{}, fmt.Errorf("%s %d: %w", kind, id, apperr.ErrNotFound)
	}
	if err != nil {
		return level{}, fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	return out, nil
}

type MovementFilter struct {
	Kind      models.EntityKind
	EntityID  uint
	ProductID uint
	Direction models.Direction
	From      time.Time
	To        time.Time
	Limit     int
}

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 1000
)

// Movements lists recorded movements, newest first.
func (l *Ledger) Movements(ctx context.Context, f MovementFilter) ([]models.StockMovement, error) {
	q := l.db.WithContext(ctx).Model(&models.StockMovement{}).Preload("Reason")

	if f.Kind != "" {
		if !f.Kind.Valid() {
			return nil, apperr.Invalid("kind", "must be gift or variant")
		}
		q = q.Where("entity_kind = ?", f.Kind)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.Direction != "" {
		if f.Direction != models.DirectionTake && f.Direction != models.DirectionReturn {
			return nil, apperr.Invalid("direction", "must be take or return")
		}
		q = q.Where("direction = ?", f.Direction)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}

	var out []models.StockMovement
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}
