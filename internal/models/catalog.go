package models

import "time"

// ReasonScope tells which inventory a take reason may be used for.
type ReasonScope string

const (
	ReasonScopeGifts   ReasonScope = "gifts"
	ReasonScopeApparel ReasonScope = "apparel"
	ReasonScopeBoth    ReasonScope = "both"
)

func (s ReasonScope) Valid() bool {
	switch s {
	case ReasonScopeGifts, ReasonScopeApparel, ReasonScopeBoth:
		return true
	}
	return false
}

// TakeReason is the standardized reason recorded with every take movement.
type TakeReason struct {
	ID        uint        `gorm:"primaryKey"`
	Name      string      `gorm:"size:100;not null;unique"`
	AppliesTo ReasonScope `gorm:"size:20;not null;default:both"`
	CreatedAt time.Time
}

// AppliesToKind reports whether the reason may be used for a movement on kind.
func (r TakeReason) AppliesToKind(kind EntityKind) bool {
	switch r.AppliesTo {
	case ReasonScopeBoth:
		return true
	case ReasonScopeGifts:
		return kind == KindGift
	case ReasonScopeApparel:
		return kind == KindVariant
	}
	return false
}

type GiftCategory struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
}

type ApparelCategory struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
}

// SizeType groups sizes: clothing, footwear or accessory.
type SizeType string

const (
	SizeTypeClothing  SizeType = "clothing"
	SizeTypeFootwear  SizeType = "footwear"
	SizeTypeAccessory SizeType = "accessory"
)

type ApparelSize struct {
	ID           uint     `gorm:"primaryKey"`
	Value        string   `gorm:"size:10;not null;uniqueIndex:idx_size_value_type"`
	Type         SizeType `gorm:"size:20;not null;uniqueIndex:idx_size_value_type"`
	DisplayOrder int      `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

type ApparelColor struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:50;not null;unique"`
	HexCode   string `gorm:"size:7"` // "#001f3f"
	CreatedAt time.Time
}
