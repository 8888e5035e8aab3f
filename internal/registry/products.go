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

const entityProduct = "apparel_product"

type ProductInput struct {
	Name            string
	CategoryID      uint
	ItemCode        string
	Gender          models.Gender // empty means unisex
	Material        string
	Description     string
	HSCode          string
	UnitPrice       decimal.Decimal
	CountryOfOrigin string
	PrimaryColorID  *uint
	ImageRef        string
	Notes           string
}

type ProductPatch struct {
	Name            *string
	CategoryID      *uint
	ItemCode        *string
	Gender          *models.Gender
	Material        *string
	Description     *string
	HSCode          *string
	UnitPrice       *decimal.Decimal
	CountryOfOrigin *string
	PrimaryColorID  *uint
	ImageRef        *string
	Notes           *string
}

type ProductFilter struct {
	CategoryID uint
	Gender     models.Gender
	Search     string
}

func (r *Registry) CreateProduct(ctx context.Context, in ProductInput, by Actor) (models.ApparelProduct, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.ApparelProduct{}, apperr.Invalid("name", "is required")
	}
	if in.Gender == "" {
		in.Gender = models.GenderUnisex
	}
	if !in.Gender.Valid() {
		return models.ApparelProduct{}, apperr.Invalid("gender", "must be one of M, W, U, Y")
	}
	if in.UnitPrice.IsNegative() {
		return models.ApparelProduct{}, apperr.Invalid("unit_price", "must not be negative")
	}
	if err := resolveRef(ctx, "category_id", in.CategoryID, r.catalog.ResolveApparelCategory); err != nil {
		return models.ApparelProduct{}, err
	}
	if in.PrimaryColorID != nil {
		if err := resolveRef(ctx, "primary_color_id", *in.PrimaryColorID, r.catalog.ResolveColor); err != nil {
			return models.ApparelProduct{}, err
		}
	}

	p := models.ApparelProduct{
		Name:            in.Name,
		CategoryID:      in.CategoryID,
		ItemCode:        in.ItemCode,
		Gender:          in.Gender,
		Material:        in.Material,
		Description:     in.Description,
		HSCode:          in.HSCode,
		UnitPrice:       in.UnitPrice,
		CountryOfOrigin: in.CountryOfOrigin,
		PrimaryColorID:  in.PrimaryColorID,
		ImageRef:        in.ImageRef,
		Notes:           in.Notes,
		CreatedByID:     by.UserID,
		UpdatedByID:     by.UserID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Apparel product created: %s", p.Name),
			After:       p,
		})
	})
	if err != nil {
		return models.ApparelProduct{}, err
	}
	return r.GetProduct(ctx, p.ID)
}

// GetProduct loads the product with its live variants.
func (r *Registry) GetProduct(ctx context.Context, id uint) (models.ApparelProduct, error) {
	var p models.ApparelProduct
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("PrimaryColor").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Variants.Size").
		Preload("Variants.Color").
		First(&p, id).Error
	if err != nil {
		return models.ApparelProduct{}, notFound(err, entityProduct, id)
	}
	return p, nil
}

func (r *Registry) ListProducts(ctx context.Context, f ProductFilter) ([]models.ApparelProduct, error) {
	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Variants.Size").
		Preload("Variants.Color")
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Gender != "" {
		if !f.Gender.Valid() {
			return nil, apperr.Invalid("gender", "must be one of M, W, U, Y")
		}
		q = q.Where("gender = ?", f.Gender)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(item_code) LIKE ?", like, like)
	}

	var out []models.ApparelProduct
	if err := q.Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (r *Registry) UpdateProduct(ctx context.Context, id uint, p ProductPatch, by Actor) (models.ApparelProduct, error) {
	updates := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return models.ApparelProduct{}, apperr.Invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if p.CategoryID != nil {
		if err := resolveRef(ctx, "category_id", *p.CategoryID, r.catalog.ResolveApparelCategory); err != nil {
			return models.ApparelProduct{}, err
		}
		updates["category_id"] = *p.CategoryID
	}
	if p.Gender != nil {
		if !p.Gender.Valid() {
			return models.ApparelProduct{}, apperr.Invalid("gender", "must be one of M, W, U, Y")
		}
		updates["gender"] = *p.Gender
	}
	if p.UnitPrice != nil {
		if p.UnitPrice.IsNegative() {
			return models.ApparelProduct{}, apperr.Invalid("unit_price", "must not be negative")
		}
		updates["unit_price"] = *p.UnitPrice
	}
	if p.PrimaryColorID != nil {
		if err := resolveRef(ctx, "primary_color_id", *p.PrimaryColorID, r.catalog.ResolveColor); err != nil {
			return models.ApparelProduct{}, err
		}
		updates["primary_color_id"] = *p.PrimaryColorID
	}
	setString(updates, "item_code", p.ItemCode)
	setString(updates, "material", p.Material)
	setString(updates, "description", p.Description)
	setString(updates, "hs_code", p.HSCode)
	setString(updates, "country_of_origin", p.CountryOfOrigin)
	setString(updates, "image_ref", p.ImageRef)
	setString(updates, "notes", p.Notes)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before models.ApparelProduct
		if err := tx.First(&before, id).Error; err != nil {
			return notFound(err, entityProduct, id)
		}
		if len(updates) == 0 {
			return nil
		}
		updates["updated_by_id"] = by.UserID

		if err := tx.Model(&models.ApparelProduct{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update product %d: %w", id, err)
		}
		var after models.ApparelProduct
		if err := tx.First(&after, id).Error; err != nil {
			return notFound(err, entityProduct, id)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityProduct,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Apparel product updated: %s", after.Name),
			Before:      before,
			After:       after,
		})
	})
	if err != nil {
		return models.ApparelProduct{}, err
	}
	return r.GetProduct(ctx, id)
}

// DeleteProduct soft-deletes the product and all of its variants.
func (r *Registry) DeleteProduct(ctx context.Context, id uint, by Actor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.ApparelProduct
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err, entityProduct, id)
		}
		res := tx.Where("product_id = ?", id).Delete(&models.ApparelVariant{})
		if res.Error != nil {
			return fmt.Errorf("delete variants of product %d: %w", id, res.Error)
		}
		if err := tx.Delete(&p).Error; err != nil {
			return fmt.Errorf("delete product %d: %w", id, err)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    by.Name,
			EntityType:  entityProduct,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Apparel product deleted: %s (%d variants)", p.Name, res.RowsAffected),
			Before:      p,
		})
	})
}
