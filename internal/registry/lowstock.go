package registry

import (
	"context"
	"fmt"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/lowstock"
	"inventory-backend/internal/models"
)

// IsLow reads the item and evaluates it against its threshold.
func (r *Registry) IsLow(ctx context.Context, kind models.EntityKind, id uint) (bool, error) {
	switch kind {
	case models.KindGift:
		g, err := r.GetGift(ctx, id)
		if err != nil {
			return false, err
		}
		return lowstock.IsLow(g), nil
	case models.KindVariant:
		v, err := r.GetVariant(ctx, id)
		if err != nil {
			return false, err
		}
		return lowstock.IsLow(v), nil
	}
	return false, apperr.Invalid("kind", "must be gift or variant")
}

// LowStockItem is one row of the low-stock report.
type LowStockItem struct {
	Kind      models.EntityKind `json:"kind"`
	ID        uint              `json:"id"`
	ProductID *uint             `json:"product_id,omitempty"`
	Name      string            `json:"name"`
	Quantity  int               `json:"quantity"`
	Threshold int               `json:"minimum_threshold"`
}

// LowStock lists every live item at or below its threshold. An empty kind
// covers both families.
func (r *Registry) LowStock(ctx context.Context, kind models.EntityKind) ([]LowStockItem, error) {
	if kind != "" && !kind.Valid() {
		return nil, apperr.Invalid("kind", "must be gift or variant")
	}
	var out []LowStockItem

	if kind == "" || kind == models.KindGift {
		gifts, err := r.ListGifts(ctx, GiftFilter{LowOnly: true})
		if err != nil {
			return nil, err
		}
		for _, g := range gifts {
			out = append(out, LowStockItem{
				Kind:      models.KindGift,
				ID:        g.ID,
				Name:      g.Name,
				Quantity:  g.Quantity,
				Threshold: g.MinimumThreshold,
			})
		}
	}

	if kind == "" || kind == models.KindVariant {
		var variants []models.ApparelVariant
		err := r.db.WithContext(ctx).
			Preload("Size").Preload("Color").
			Joins("JOIN apparel_products ON apparel_products.id = apparel_variants.product_id AND apparel_products.deleted_at IS NULL").
			Where("apparel_variants.quantity <= apparel_variants.minimum_threshold").
			Order("apparel_variants.product_id ASC, apparel_variants.id ASC").
			Find(&variants).Error
		if err != nil {
			return nil, fmt.Errorf("list low variants: %w", err)
		}

		names, err := r.productNames(ctx, variants)
		if err != nil {
			return nil, err
		}
		for _, v := range variants {
			pid := v.ProductID
			out = append(out, LowStockItem{
				Kind:      models.KindVariant,
				ID:        v.ID,
				ProductID: &pid,
				Name:      fmt.Sprintf("%s / %s / %s", names[v.ProductID], v.Size.Value, v.Color.Name),
				Quantity:  v.Quantity,
				Threshold: v.MinimumThreshold,
			})
		}
	}
	return out, nil
}

func (r *Registry) productNames(ctx context.Context, variants []models.ApparelVariant) (map[uint]string, error) {
	names := map[uint]string{}
	if len(variants) == 0 {
		return names, nil
	}
	ids := make([]uint, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ProductID)
	}
	var products []models.ApparelProduct
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load product names: %w", err)
	}
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}
