package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultGiftThreshold is the low-stock threshold used when none is given.
const DefaultGiftThreshold = 10

// Gift: a flat stocked item, one row per distinct product.
// Quantity is written only by the stock ledger.
type Gift struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:200;not null;index"`
	CategoryID       uint   `gorm:"index;not null"`
	Category         GiftCategory
	Description      string          `gorm:"type:text"`
	Material         string          `gorm:"size:200"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	HSCode           string          `gorm:"size:20"`
	CountryOfOrigin  string          `gorm:"size:100"`
	SupplierName     string          `gorm:"size:200"`
	SupplierEmail    string          `gorm:"size:254"`
	SupplierAddress  string          `gorm:"type:text"`
	ImageRef         string          `gorm:"size:500"` // storage key/URL, upload handled elsewhere
	Notes            string          `gorm:"type:text"`
	Quantity         int             `gorm:"not null;check:chk_gifts_quantity,quantity >= 0"`
	MinimumThreshold int             `gorm:"not null;check:chk_gifts_threshold,minimum_threshold >= 0"`
	CreatedByID      *uint
	UpdatedByID      *uint
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (g Gift) StockLevel() (quantity, threshold int) {
	return g.Quantity, g.MinimumThreshold
}
