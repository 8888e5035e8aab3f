// Package events publishes stock movement notifications after the ledger
// commits. Delivery is best effort: the movement is already durable.
package events

import (
	"context"
	"time"

	"inventory-backend/internal/models"
)

const (
	TypeMovementRecorded = "movement.recorded"
	TypeLowStock         = "stock.low"
)

type MovementRecorded struct {
	MovementID        uint              `json:"movement_id"`
	Kind              models.EntityKind `json:"kind"`
	EntityID          uint              `json:"entity_id"`
	ProductID         *uint             `json:"product_id,omitempty"`
	Direction         models.Direction  `json:"direction"`
	QuantityDelta     int               `json:"quantity_delta"`
	ReasonID          *uint             `json:"reason_id,omitempty"`
	QuantityBefore    int               `json:"quantity_before"`
	ResultingQuantity int               `json:"resulting_quantity"`
	UserID            *uint             `json:"user_id,omitempty"`
	At                time.Time         `json:"at"`
}

type LowStock struct {
	Kind      models.EntityKind `json:"kind"`
	EntityID  uint              `json:"entity_id"`
	Quantity  int               `json:"quantity"`
	Threshold int               `json:"threshold"`
	At        time.Time         `json:"at"`
}

// Publisher delivers ledger events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	MovementRecorded(ctx context.Context, e MovementRecorded) error
	LowStock(ctx context.Context, e LowStock) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) MovementRecorded(context.Context, MovementRecorded) error { return nil }
func (Nop) LowStock(context.Context, LowStock) error                 { return nil }
func (Nop) Close() error                                             { return nil }
