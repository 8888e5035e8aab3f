package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/models"
)

const entityVariant = "apparel_variant"

type VariantInput struct {
	ProductID        uint
	SizeID           uint
	ColorID          uint
	Gender           models.Gender // empty inherits the product's gender
	SKU              string
	WeightGrams      *decimal.Decimal
	InitialQuantity  int
	MinimumThreshold *int // nil means models.DefaultVariantThreshold
}

type VariantPatch struct {
	SizeID           *uint
	ColorID          *uint
	Gender           *models.Gender
	SKU              *string
	WeightGrams      *decimal.Decimal
	MinimumThreshold *int
	Quantity         *int
}

// CreateVariant adds a stock counter for one size/color of a product.
// A (product, size, color) triple can exist only once, deleted rows included.
func (r *Registry) CreateVariant(ctx context.Context, in VariantInput, by Actor) (models.ApparelVariant, error) {
	if in.InitialQuantity < 0 {
		return models.ApparelVariant{}, apperr.Invalid("quantity", "must not be negative")
	}
	thr, err := threshold(in.MinimumThreshold, models.DefaultVariantThreshold)
	if err != nil {
		return models.ApparelVariant{}, err
	}
	if in.Gender != "" && !in.Gender.Valid() {
		return models.ApparelVariant{}, apperr.Invalid("gender", "must be one of M, W, U, Y")
	}
	if in.WeightGrams != nil && in.WeightGrams.IsNegative() {
		return models.ApparelVariant{}, apperr.Invalid("weight_grams", "must not be negative")
	}
	if in.ProductID == 0 {
		return models.ApparelVariant{}, apperr.Invalid("product_id", "is required")
	}
	if err := resolveRef(ctx, "size_id", in.SizeID, r.catalog.ResolveSize); err != nil {
		return models.ApparelVariant{}, err
	}
	if err := resolveRef(ctx, "color_id", in.ColorID, r.catalog.ResolveColor); err != nil {
		return models.ApparelVariant{}, err
	}

	var v models.ApparelVariant
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.ApparelProduct
		if err := tx.First(&p, in.ProductID).Error; err != nil {
			return notFound(err, entityProduct, in.ProductID)
		}
		if err := ensureUniqueTriple(tx, in.ProductID, in.SizeID, in.ColorID, 0); err != nil {
			return err
		}

		gender := in.Gender
		if gender == "" {
			gender = p.Gender
		}
		v = models.ApparelVariant{
			ProductID:        in.ProductID,
			SizeID:           in.SizeID,
			ColorID:          in.ColorID,
			Gender:           gender,
			SKU:              strings.TrimSpace(in.SKU),
			WeightGrams:      in.WeightGrams,
			Quantity:         in.InitialQuantity,
			MinimumThreshold: thr,
			CreatedByID:      by.UserID,
			UpdatedByID:      by.UserID,
		}
		if err := tx.Create(&v).Error; err != nil {
			return duplicate(err, "create variant")
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityVariant,
			EntityID:    v.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Variant created for %s", p.Name),
			After:       v,
		})
	})
	if err != nil {
		return models.ApparelVariant{}, err
	}
	return r.GetVariant(ctx, v.ID)
}

func (r *Registry) GetVariant(ctx context.Context, id uint) (models.ApparelVariant, error) {
	var v models.ApparelVariant
	if err := r.db.WithContext(ctx).Preload("Size").Preload("Color").First(&v, id).Error; err != nil {
		return models.ApparelVariant{}, notFound(err, entityVariant, id)
	}
	return v, nil
}

// ListVariants lists live variants, optionally for one product.
func (r *Registry) ListVariants(ctx context.Context, productID uint) ([]models.ApparelVariant, error) {
	q := r.db.WithContext(ctx).Preload("Size").Preload("Color")
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	var out []models.ApparelVariant
	if err := q.Order("product_id ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	return out, nil
}

func (r *Registry) UpdateVariant(ctx context.Context, id uint, p VariantPatch, by Actor) (models.ApparelVariant, error) {
	if p.Quantity != nil {
		return models.ApparelVariant{}, apperr.ErrQuantityReadOnly
	}

	updates := map[string]any{}
	if p.SizeID != nil {
		if err := resolveRef(ctx, "size_id", *p.SizeID, r.catalog.ResolveSize); err != nil {
			return models.ApparelVariant{}, err
		}
		updates["size_id"] = *p.SizeID
	}
	if p.ColorID != nil {
		if err := resolveRef(ctx, "color_id", *p.ColorID, r.catalog.ResolveColor); err != nil {
			return models.ApparelVariant{}, err
		}
		updates["color_id"] = *p.ColorID
	}
	if p.Gender != nil {
		if !p.Gender.Valid() {
			return models.ApparelVariant{}, apperr.Invalid("gender", "must be one of M, W, U, Y")
		}
		updates["gender"] = *p.Gender
	}
	if p.WeightGrams != nil {
		if p.WeightGrams.IsNegative() {
			return models.ApparelVariant{}, apperr.Invalid("weight_grams", "must not be negative")
		}
		updates["weight_grams"] = *p.WeightGrams
	}
	if p.MinimumThreshold != nil {
		if *p.MinimumThreshold < 0 {
			return models.ApparelVariant{}, apperr.Invalid("minimum_threshold", "must not be negative")
		}
		updates["minimum_threshold"] = *p.MinimumThreshold
	}
	if p.SKU != nil {
		updates["sku"] = strings.TrimSpace(*p.SKU)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before models.ApparelVariant
		if err := tx.First(&before, id).Error; err != nil {
			return notFound(err, entityVariant, id)
		}
		if len(updates) == 0 {
			return nil
		}
		if p.SizeID != nil || p.ColorID != nil {
			sizeID, colorID := before.SizeID, before.ColorID
			if p.SizeID != nil {
				sizeID = *p.SizeID
			}
			if p.ColorID != nil {
				colorID = *p.ColorID
			}
			if err := ensureUniqueTriple(tx, before.ProductID, sizeID, colorID, id); err != nil {
				return err
			}
		}
		updates["updated_by_id"] = by.UserID

		if err := tx.Model(&models.ApparelVariant{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return duplicate(err, fmt.Sprintf("update variant %d", id))
		}
		var after models.ApparelVariant
		if err := tx.First(&after, id).Error; err != nil {
			return notFound(err, entityVariant, id)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityVariant,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Variant %d updated", id),
			Before:      before,
			After:       after,
		})
	})
	if err != nil {
		return models.ApparelVariant{}, err
	}
	return r.GetVariant(ctx, id)
}

// DeleteVariant soft-deletes one variant. Its movements stay.
func (r *Registry) DeleteVariant(ctx context.Context, id uint, by Actor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.ApparelVariant
		if err := tx.First(&v, id).Error; err != nil {
			return notFound(err, entityVariant, id)
		}
		if err := tx.Delete(&v).Error; err != nil {
			return fmt.Errorf("delete variant %d: %w", id, err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityVariant,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Variant %d deleted", id),
			Before:      v,
		})
	})
}

// ensureUniqueTriple checks the triple against every row, soft-deleted
// ones included, other than except.
func ensureUniqueTriple(tx *gorm.DB, productID, sizeID, colorID, except uint) error {
	q := tx.Unscoped().Model(&models.ApparelVariant{}).
		Where("product_id = ? AND size_id = ? AND color_id = ?", productID, sizeID, colorID)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check variant triple: %w", err)
	}
	if n > 0 {
		return apperr.ErrDuplicateVariant
	}
	return nil
}

// duplicate maps a unique-index violation that slipped past
// ensureUniqueTriple (a concurrent insert) to ErrDuplicateVariant.
func duplicate(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrDuplicateVariant
	}
	return fmt.Errorf("%s: %w", op, err)
}
