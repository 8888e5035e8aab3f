package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-backend/internal/models"
)

var seedReasons = []string{
	"Event",
	"Office Use",
	"External Gift (Visitors/Meetings)",
	"New Employee Welcome",
	"Damaged/Defective",
	"Sample",
	"Other",
}

var seedSizes = map[models.SizeType][]string{
	models.SizeTypeClothing:  {"XS", "S", "M", "L", "XL", "2XL", "3XL", "4XL", "5XL"},
	models.SizeTypeFootwear:  {"36", "37", "38", "39", "40", "41", "42", "43", "44", "45", "46", "47", "48", "49", "50"},
	models.SizeTypeAccessory: {"One Size", "Small", "Medium", "Large", "20L", "30L", "40L"},
}

var seedColors = [][2]string{
	{"Black", "#000000"},
	{"White", "#FFFFFF"},
	{"Dark Blue", "#081930"},
	{"Blue", "#027bb8"},
	{"Light Blue", "#92b7d6"},
	{"Green", "#46b79f"},
	{"Beige", "#D2B48C"},
	{"Grey", "#AAAAAA"},
}

var seedApparelCategories = []string{
	"Staff", "Polo Shirt", "T-Shirt", "Hoodie", "Short Down Jacket", "Windbreaker",
	"Blazer", "Shorts", "Pants", "Shoes", "Socks", "Backpack", "Belt", "Bucket Hat", "Cap",
}

var seedGiftCategories = []string{"Award", "Souvenir", "Stationery", "Other"}

// Seed inserts the standard reference data. Existing rows are left alone,
// so it is safe to run on every start.
func Seed(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created := 0

		for _, name := range seedReasons {
			r := models.TakeReason{Name: name, AppliesTo: models.ReasonScopeBoth}
			res := tx.Where(models.TakeReason{Name: name}).FirstOrCreate(&r)
			if res.Error != nil {
				return fmt.Errorf("seed reason %q: %w", name, res.Error)
			}
			created += int(res.RowsAffected)
		}

		for sizeType, values := range seedSizes {
			for i, v := range values {
				s := models.ApparelSize{Value: v, Type: sizeType, DisplayOrder: i + 1}
				res := tx.Where(models.ApparelSize{Value: v, Type: sizeType}).FirstOrCreate(&s)
				if res.Error != nil {
					return fmt.Errorf("seed size %s/%s: %w", sizeType, v, res.Error)
				}
				created += int(res.RowsAffected)
			}
		}

		for _, c := range seedColors {
			color := models.ApparelColor{Name: c[0], HexCode: c[1]}
			res := tx.Where(models.ApparelColor{Name: c[0]}).FirstOrCreate(&color)
			if res.Error != nil {
				return fmt.Errorf("seed color %q: %w", c[0], res.Error)
			}
			created += int(res.RowsAffected)
		}

		for _, name := range seedApparelCategories {
			cat := models.ApparelCategory{Name: name}
			res := tx.Where(models.ApparelCategory{Name: name}).FirstOrCreate(&cat)
			if res.Error != nil {
				return fmt.Errorf("seed apparel category %q: %w", name, res.Error)
			}
			created += int(res.RowsAffected)
		}

		for _, name := range seedGiftCategories {
			cat := models.GiftCategory{Name: name}
			res := tx.Where(models.GiftCategory{Name: name}).FirstOrCreate(&cat)
			if res.Error != nil {
				return fmt.Errorf("seed gift category %q: %w", name, res.Error)
			}
			created += int(res.RowsAffected)
		}

		logger.Info("catalog seeded", zap.Int("created", created))
		return nil
	})
}
