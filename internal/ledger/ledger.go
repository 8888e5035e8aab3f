// Package ledger is the only writer of stock quantities. Every take or
// return changes one row and appends one StockMovement in a single
// transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/catalog"
	"inventory-backend/internal/events"
	"inventory-backend/internal/lowstock"
	"inventory-backend/internal/models"
)

type TakeRequest struct {
	Kind     models.EntityKind
	EntityID uint
	Quantity int
	ReasonID uint
	Notes    string
	UserID   *uint
}

type ReturnRequest struct {
	Kind     models.EntityKind
	EntityID uint
	Quantity int
	Notes    string
	UserID   *uint
}

type Result struct {
	NewQuantity int
	Threshold   int
	Movement    models.StockMovement
	Low         bool
}

type Ledger struct {
	db        *gorm.DB
	catalog   catalog.Store
	publisher events.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
}

func New(db *gorm.DB, cat catalog.Store, pub events.Publisher, logger *zap.Logger) *Ledger {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Ledger{
		db:        db,
		catalog:   cat,
		publisher: pub,
		logger:    logger.Named("ledger"),
		tracer:    otel.Tracer("inventory-backend/ledger"),
	}
}

// Take removes quantity from the item. It fails with InsufficientStock,
// leaving everything untouched, when fewer units are on hand.
func (l *Ledger) Take(ctx context.Context, req TakeRequest) (Result, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Take", trace.WithAttributes(
		attribute.String("inventory.kind", string(req.Kind)),
		attribute.Int64("inventory.entity_id", int64(req.EntityID)),
		attribute.Int("inventory.quantity", req.Quantity),
	))
	defer span.End()

	res, err := l.take(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("inventory.new_quantity", res.NewQuantity))
	l.announce(ctx, res)
	return res, nil
}

func (l *Ledger) take(ctx context.Context, req TakeRequest) (Result, error) {
	if err := validate(req.Kind, req.Quantity); err != nil {
		return Result{}, err
	}
	if req.ReasonID == 0 {
		return Result{}, apperr.Invalid("reason_id", "a reason is required to take stock")
	}

	reason, err := l.catalog.ResolveReason(ctx, req.ReasonID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Result{}, fmt.Errorf("reason %d: %w", req.ReasonID, apperr.ErrInvalidReason)
	}
	if err != nil {
		return Result{}, err
	}
	if !reason.AppliesToKind(req.Kind) {
		return Result{}, fmt.Errorf("reason %q is for %s: %w", reason.Name, reason.AppliesTo, apperr.ErrInvalidReason)
	}

	var res Result
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// conditional decrement: the row lock taken here serializes takes
		// on the same item, and the WHERE makes the check and the write one step
		upd := tx.Model(modelFor(req.Kind)).
			Where("id = ? AND quantity >= ?", req.EntityID, req.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", req.Quantity))
		if upd.Error != nil {
			return fmt.Errorf("decrement %s %d: %w", req.Kind, req.EntityID, upd.Error)
		}
		if upd.RowsAffected == 0 {
			cur, err := load(tx, req.Kind, req.EntityID)
			if err != nil {
				return err
			}
			return &apperr.InsufficientStock{
				Kind:      req.Kind,
				EntityID:  req.EntityID,
				Requested: req.Quantity,
				Available: cur.Quantity,
			}
		}

		after, err := load(tx, req.Kind, req.EntityID)
		if err != nil {
			return err
		}

		reasonID := reason.ID
		mv := models.StockMovement{
			EntityKind:        req.Kind,
			EntityID:          req.EntityID,
			ProductID:         after.ProductID,
			Direction:         models.DirectionTake,
			QuantityDelta:     req.Quantity,
			ReasonID:          &reasonID,
			Notes:             req.Notes,
			QuantityBefore:    after.Quantity + req.Quantity,
			ResultingQuantity: after.Quantity,
			UserID:            req.UserID,
		}
		if err := tx.Create(&mv).Error; err != nil {
			return fmt.Errorf("record movement: %w", err)
		}
		mv.Reason = &reason

		res = Result{NewQuantity: after.Quantity, Threshold: after.MinimumThreshold, Movement: mv, Low: lowstock.IsLow(after)}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	l.logger.Info("stock taken",
		zap.String("kind", string(req.Kind)),
		zap.Uint("entity_id", req.EntityID),
		zap.Int("quantity", req.Quantity),
		zap.Int("new_quantity", res.NewQuantity),
		zap.String("reason", reason.Name),
	)
	return res, nil
}

// Return adds quantity back to the item. It is bounded only by the integer
// range of the column.
func (l *Ledger) Return(ctx context.Context, req ReturnRequest) (Result, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.Return", trace.WithAttributes(
		attribute.String("inventory.kind", string(req.Kind)),
		attribute.Int64("inventory.entity_id", int64(req.EntityID)),
		attribute.Int("inventory.quantity", req.Quantity),
	))
	defer span.End()

	res, err := l.restock(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("inventory.new_quantity", res.NewQuantity))
	l.announce(ctx, res)
	return res, nil
}

func (l *Ledger) restock(ctx context.Context, req ReturnRequest) (Result, error) {
	if err := validate(req.Kind, req.Quantity); err != nil {
		return Result{}, err
	}

	var res Result
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(modelFor(req.Kind)).
			Where("id = ? AND quantity <= ?", req.EntityID, math.MaxInt-req.Quantity).
			Update("quantity", gorm.Expr("quantity + ?", req.Quantity))
		if upd.Error != nil {
			return fmt.Errorf("increment %s %d: %w", req.Kind, req.EntityID, upd.Error)
		}
		if upd.RowsAffected == 0 {
			// either missing or the sum would overflow
			if _, err := load(tx, req.Kind, req.EntityID); err != nil {
				return err
			}
			return apperr.Invalid("quantity", "would overflow the stored quantity")
		}

		after, err := load(tx, req.Kind, req.EntityID)
		if err != nil {
			return err
		}

		mv := models.StockMovement{
			EntityKind:        req.Kind,
			EntityID:          req.EntityID,
			ProductID:         after.ProductID,
			Direction:         models.DirectionReturn,
			QuantityDelta:     req.Quantity,
			Notes:             req.Notes,
			QuantityBefore:    after.Quantity - req.Quantity,
			ResultingQuantity: after.Quantity,
			UserID:            req.UserID,
		}
		if err := tx.Create(&mv).Error; err != nil {
			return fmt.Errorf("record movement: %w", err)
		}

		res = Result{NewQuantity: after.Quantity, Threshold: after.MinimumThreshold, Movement: mv, Low: lowstock.IsLow(after)}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	l.logger.Info("stock returned",
		zap.String("kind", string(req.Kind)),
		zap.Uint("entity_id", req.EntityID),
		zap.Int("quantity", req.Quantity),
		zap.Int("new_quantity", res.NewQuantity),
	)
	return res, nil
}

// announce publishes after commit. Failures are only logged.
func (l *Ledger) announce(ctx context.Context, res Result) {
	mv := res.Movement
	err := l.publisher.MovementRecorded(ctx, events.MovementRecorded{
		MovementID:        mv.ID,
		Kind:              mv.EntityKind,
		EntityID:          mv.EntityID,
		ProductID:         mv.ProductID,
		Direction:         mv.Direction,
		QuantityDelta:     mv.QuantityDelta,
		ReasonID:          mv.ReasonID,
		QuantityBefore:    mv.QuantityBefore,
		ResultingQuantity: mv.ResultingQuantity,
		UserID:            mv.UserID,
		At:                mv.CreatedAt,
	})
	if err != nil {
		l.logger.Warn("publish movement event failed", zap.Uint("movement_id", mv.ID), zap.Error(err))
	}

	if !res.Low {
		return
	}
	l.logger.Info("low stock",
		zap.String("kind", string(mv.EntityKind)),
		zap.Uint("entity_id", mv.EntityID),
		zap.Int("quantity", res.NewQuantity),
	)
	err = l.publisher.LowStock(ctx, events.LowStock{
		Kind:      mv.EntityKind,
		EntityID:  mv.EntityID,
		Quantity:  res.NewQuantity,
		Threshold: res.Threshold,
		At:        mv.CreatedAt,
	})
	if err != nil {
		l.logger.Warn("publish low stock alert failed", zap.Uint("entity_id", mv.EntityID), zap.Error(err))
	}
}

func validate(kind models.EntityKind, qty int) error {
	if !kind.Valid() {
		return apperr.Invalid("kind", "must be gift or variant")
	}
	if qty <= 0 {
		return apperr.Invalid("quantity", "must be a positive integer")
	}
	return nil
}
