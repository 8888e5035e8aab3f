package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/models"
)

const entityGift = "gift"

type GiftInput struct {
	Name             string
	CategoryID       uint
	Description      string
	Material         string
	UnitPrice        decimal.Decimal
	HSCode           string
	CountryOfOrigin  string
	SupplierName     string
	SupplierEmail    string
	SupplierAddress  string
	ImageRef         string
	Notes            string
	InitialQuantity  int
	MinimumThreshold *int // nil means models.DefaultGiftThreshold
}

// GiftPatch changes only the non-nil fields. Quantity is accepted so that
// callers get a clear ErrQuantityReadOnly instead of a silent drop.
type GiftPatch struct {
	Name             *string
	CategoryID       *uint
	Description      *string
	Material         *string
	UnitPrice        *decimal.Decimal
	HSCode           *string
	CountryOfOrigin  *string
	SupplierName     *string
	SupplierEmail    *string
	SupplierAddress  *string
	ImageRef         *string
	Notes            *string
	MinimumThreshold *int
	Quantity         *int
}

type GiftFilter struct {
	CategoryID uint
	Search     string
	LowOnly    bool
}

func (r *Registry) CreateGift(ctx context.Context, in GiftInput, by Actor) (models.Gift, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Gift{}, apperr.Invalid("name", "is required")
	}
	if in.UnitPrice.IsNegative() {
		return models.Gift{}, apperr.Invalid("unit_price", "must not be negative")
	}
	if in.InitialQuantity < 0 {
		return models.Gift{}, apperr.Invalid("quantity", "must not be negative")
	}
	thr, err := threshold(in.MinimumThreshold, models.DefaultGiftThreshold)
	if err != nil {
		return models.Gift{}, err
	}
	if err := resolveRef(ctx, "category_id", in.CategoryID, r.catalog.ResolveGiftCategory); err != nil {
		return models.Gift{}, err
	}

	g := models.Gift{
		Name:             in.Name,
		CategoryID:       in.CategoryID,
		Description:      in.Description,
		Material:         in.Material,
		UnitPrice:        in.UnitPrice,
		HSCode:           in.HSCode,
		CountryOfOrigin:  in.CountryOfOrigin,
		SupplierName:     in.SupplierName,
		SupplierEmail:    in.SupplierEmail,
		SupplierAddress:  in.SupplierAddress,
		ImageRef:         in.ImageRef,
		Notes:            in.Notes,
		Quantity:         in.InitialQuantity,
		MinimumThreshold: thr,
		CreatedByID:      by.UserID,
		UpdatedByID:      by.UserID,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&g).Error; err != nil {
			return fmt.Errorf("create gift: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityGift,
			EntityID:    g.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Gift created: %s", g.Name),
			After:       g,
		})
	})
	if err != nil {
		return models.Gift{}, err
	}
	return r.GetGift(ctx, g.ID)
}

func (r *Registry) GetGift(ctx context.Context, id uint) (models.Gift, error) {
	var g models.Gift
	if err := r.db.WithContext(ctx).Preload("Category").First(&g, id).Error; err != nil {
		return models.Gift{}, notFound(err, entityGift, id)
	}
	return g, nil
}

func (r *Registry) ListGifts(ctx context.Context, f GiftFilter) ([]models.Gift, error) {
	q := r.db.WithContext(ctx).Preload("Category")
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if f.LowOnly {
		q = q.Where("quantity <= minimum_threshold")
	}

	var out []models.Gift
	if err := q.Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	return out, nil
}

func (r *Registry) UpdateGift(ctx context.Context, id uint, p GiftPatch, by Actor) (models.Gift, error) {
	if p.Quantity != nil {
		return models.Gift{}, apperr.ErrQuantityReadOnly
	}

	updates := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return models.Gift{}, apperr.Invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if p.CategoryID != nil {
		if err := resolveRef(ctx, "category_id", *p.CategoryID, r.catalog.ResolveGiftCategory); err != nil {
			return models.Gift{}, err
		}
		updates["category_id"] = *p.CategoryID
	}
	if p.UnitPrice != nil {
		if p.UnitPrice.IsNegative() {
			return models.Gift{}, apperr.Invalid("unit_price", "must not be negative")
		}
		updates["unit_price"] = *p.UnitPrice
	}
	if p.MinimumThreshold != nil {
		if *p.MinimumThreshold < 0 {
			return models.Gift{}, apperr.Invalid("minimum_threshold", "must not be negative")
		}
		updates["minimum_threshold"] = *p.MinimumThreshold
	}
	setString(updates, "description", p.Description)
	setString(updates, "material", p.Material)
	setString(updates, "hs_code", p.HSCode)
	setString(updates, "country_of_origin", p.CountryOfOrigin)
	setString(updates, "supplier_name", p.SupplierName)
	setString(updates, "supplier_email", p.SupplierEmail)
	setString(updates, "supplier_address", p.SupplierAddress)
	setString(updates, "image_ref", p.ImageRef)
	setString(updates, "notes", p.Notes)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before models.Gift
		if err := tx.First(&before, id).Error; err != nil {
			return notFound(err, entityGift, id)
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_by_id"] = by.UserID

		if err := tx.Model(&models.Gift{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update gift %d: %w", id, err)
		}
		var after models.Gift
		if err := tx.First(&after, id).Error; err != nil {
			return notFound(err, entityGift, id)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityGift,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Gift updated: %s", after.Name),
			Before:      before,
			After:       after,
		})
	})
	if err != nil {
		return models.Gift{}, err
	}
	return r.GetGift(ctx, id)
}

// DeleteGift soft-deletes the gift. Its movements stay.
func (r *Registry) DeleteGift(ctx context.Context, id uint, by Actor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Gift
		if err := tx.First(&g, id).Error; err != nil {
			return notFound(err, entityGift, id)
		}
		if err := tx.Delete(&g).Error; err != nil {
			return fmt.Errorf("delete gift %d: %w", id, err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityGift,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Gift deleted: %s", g.Name),
			Before:      g,
		})
	})
}

func setString(updates map[string]any, col string, v *string) {
	if v != nil {
		updates[col] = *v
	}
}
