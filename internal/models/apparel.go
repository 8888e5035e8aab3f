package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultVariantThreshold is the low-stock threshold used when none is given.
const DefaultVariantThreshold = 5

type Gender string

const (
	GenderMen    Gender = "M"
	GenderWomen  Gender = "W"
	GenderUnisex Gender = "U"
	GenderYouth  Gender = "Y"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex, GenderYouth:
		return true
	}
	return false
}

// ApparelProduct describes a garment style. It carries no stock itself;
// every size/color combination is an ApparelVariant.
type ApparelProduct struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"size:200;not null;index"`
	CategoryID      uint   `gorm:"index;not null"`
	Category        ApparelCategory
	ItemCode        string          `gorm:"size:50"` // supplier product code
	Gender          Gender          `gorm:"size:1;not null;default:U"`
	Material        string          `gorm:"size:200"`
	Description     string          `gorm:"type:text"`
	HSCode          string          `gorm:"size:20"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CountryOfOrigin string          `gorm:"size:100"`
	PrimaryColorID  *uint
	PrimaryColor    *ApparelColor
	ImageRef        string           `gorm:"size:500"`
	Notes           string           `gorm:"type:text"`
	Variants        []ApparelVariant `gorm:"foreignKey:ProductID"`
	CreatedByID     *uint
	UpdatedByID     *uint
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// ApparelVariant is an independent stock counter for one
// (product, size, color) triple.
type ApparelVariant struct {
	ID               uint `gorm:"primaryKey"`
	ProductID        uint `gorm:"not null;uniqueIndex:idx_variant_triple,priority:1"`
	SizeID           uint `gorm:"not null;uniqueIndex:idx_variant_triple,priority:2"`
	Size             ApparelSize
	ColorID          uint `gorm:"not null;uniqueIndex:idx_variant_triple,priority:3"`
	Color            ApparelColor
	Gender           Gender           `gorm:"size:1;not null"`
	SKU              string           `gorm:"size:100"`
	WeightGrams      *decimal.Decimal `gorm:"type:decimal(6,2)"`
	Quantity         int              `gorm:"not null;check:chk_variants_quantity,quantity >= 0"`
	MinimumThreshold int              `gorm:"not null;check:chk_variants_threshold,minimum_threshold >= 0"`
	CreatedByID      *uint
	UpdatedByID      *uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (v ApparelVariant) StockLevel() (quantity, threshold int) {
	return v.Quantity, v.MinimumThreshold
}
