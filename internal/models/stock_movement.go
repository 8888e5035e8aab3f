package models

import "time"

// EntityKind tags which stocked family a movement or request targets.
type EntityKind string

const (
	KindGift    EntityKind = "gift"
	KindVariant EntityKind = "variant"
)

func (k EntityKind) Valid() bool {
	return k == KindGift || k == KindVariant
}

type Direction string

const (
	DirectionTake   Direction = "take"
	DirectionReturn Direction = "return"
)

// StockMovement is the append-only audit record of one take or return.
// Rows are inserted in the same transaction as the quantity change and are
// never updated or deleted.
type StockMovement struct {
	ID                uint       `gorm:"primaryKey"`
	EntityKind        EntityKind `gorm:"size:10;not null;index:idx_movement_entity,priority:1"`
	EntityID          uint       `gorm:"not null;index:idx_movement_entity,priority:2"`
	ProductID         *uint      `gorm:"index"` // parent product for variant movements
	Direction         Direction  `gorm:"size:10;not null"`
	QuantityDelta     int        `gorm:"not null;check:chk_movements_delta,quantity_delta > 0"`
	ReasonID          *uint      `gorm:"index"`
	Reason            *TakeReason
	Notes             string    `gorm:"type:text"`
	QuantityBefore    int       `gorm:"not null"`
	ResultingQuantity int       `gorm:"not null"`
	UserID            *uint     `gorm:"index"`
	CreatedAt         time.Time `gorm:"index"`
}
