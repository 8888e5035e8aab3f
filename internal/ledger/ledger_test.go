package ledger

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/catalog"
	"inventory-backend/internal/database/dbtest"
	"inventory-backend/internal/events"
	"inventory-backend/internal/models"
)

type fixture struct {
	db      *gorm.DB
	ledger  *Ledger
	pub     *recordingPublisher
	gift    models.Gift
	variant models.ApparelVariant
	both    models.TakeReason
	gifts   models.TakeReason
	apparel models.TakeReason
}

type recordingPublisher struct {
	mu        sync.Mutex
	movements []events.MovementRecorded
	lows      []events.LowStock
	err       error
}

func (p *recordingPublisher) MovementRecorded(_ context.Context, e events.MovementRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.movements = append(p.movements, e)
	return p.err
}

func (p *recordingPublisher) LowStock(_ context.Context, e events.LowStock) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lows = append(p.lows, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newFixture(t *testing.T, giftQty, variantQty int) *fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.New(t), giftQty, variantQty)
}

func newFixtureOn(t *testing.T, db *gorm.DB, giftQty, variantQty int) *fixture {
	t.Helper()

	f := &fixture{db: db, pub: &recordingPublisher{}}
	f.both = models.TakeReason{Name: "Event", AppliesTo: models.ReasonScopeBoth}
	f.gifts = models.TakeReason{Name: "Visitor", AppliesTo: models.ReasonScopeGifts}
	f.apparel = models.TakeReason{Name: "Uniform", AppliesTo: models.ReasonScopeApparel}
	require.NoError(t, db.Create(&[]*models.TakeReason{&f.both, &f.gifts, &f.apparel}).Error)

	gc := models.GiftCategory{Name: "Souvenir"}
	ac := models.ApparelCategory{Name: "Hoodie"}
	size := models.ApparelSize{Value: "M", Type: models.SizeTypeClothing, DisplayOrder: 3}
	color := models.ApparelColor{Name: "Black", HexCode: "#000000"}
	require.NoError(t, db.Create(&gc).Error)
	require.NoError(t, db.Create(&ac).Error)
	require.NoError(t, db.Create(&size).Error)
	require.NoError(t, db.Create(&color).Error)

	f.gift = models.Gift{
		Name:             "Pin",
		CategoryID:       gc.ID,
		UnitPrice:        decimal.RequireFromString("2.50"),
		Quantity:         giftQty,
		MinimumThreshold: models.DefaultGiftThreshold,
	}
	require.NoError(t, db.Create(&f.gift).Error)

	product := models.ApparelProduct{Name: "Team Hoodie", CategoryID: ac.ID, Gender: models.GenderUnisex, UnitPrice: decimal.NewFromInt(30)}
	require.NoError(t, db.Create(&product).Error)

	f.variant = models.ApparelVariant{
		ProductID:        product.ID,
		SizeID:           size.ID,
		ColorID:          color.ID,
		Gender:           models.GenderUnisex,
		Quantity:         variantQty,
		MinimumThreshold: models.DefaultVariantThreshold,
	}
	require.NoError(t, db.Create(&f.variant).Error)

	f.ledger = New(db, catalog.NewGormStore(db), f.pub, zap.NewNop())
	return f
}

func (f *fixture) quantity(t *testing.T, kind models.EntityKind, id uint) int {
	t.Helper()
	l, err := load(f.db, kind, id)
	require.NoError(t, err)
	return l.Quantity
}

func (f *fixture) movementCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Count(&n).Error)
	return n
}

func TestTakeDecrementsAndRecords(t *testing.T) {
	f := newFixture(t, 20, 8)
	ctx := context.Background()
	user := uint(3)

	res, err := f.ledger.Take(ctx, TakeRequest{
		Kind:     models.KindGift,
		EntityID: f.gift.ID,
		Quantity: 5,
		ReasonID: f.both.ID,
		Notes:    "trade fair",
		UserID:   &user,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.NewQuantity)
	assert.False(t, res.Low)

	mv := res.Movement
	assert.NotZero(t, mv.ID)
	assert.Equal(t, models.DirectionTake, mv.Direction)
	assert.Equal(t, 5, mv.QuantityDelta)
	assert.Equal(t, 20, mv.QuantityBefore)
	assert.Equal(t, 15, mv.ResultingQuantity)
	require.NotNil(t, mv.ReasonID)
	assert.Equal(t, f.both.ID, *mv.ReasonID)
	assert.Nil(t, mv.ProductID)
	assert.Equal(t, "trade fair", mv.Notes)

	assert.Equal(t, 15, f.quantity(t, models.KindGift, f.gift.ID))
	require.Len(t, f.pub.movements, 1)
	assert.Equal(t, mv.ID, f.pub.movements[0].MovementID)
	assert.Empty(t, f.pub.lows)
}

func TestTakeVariantCarriesProduct(t *testing.T) {
	f := newFixture(t, 0, 8)

	res, err := f.ledger.Take(context.Background(), TakeRequest{
		Kind: models.KindVariant, EntityID: f.variant.ID, Quantity: 3, ReasonID: f.apparel.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.NewQuantity)
	assert.True(t, res.Low, "5 <= default threshold 5")
	require.NotNil(t, res.Movement.ProductID)
	assert.Equal(t, f.variant.ProductID, *res.Movement.ProductID)

	require.Len(t, f.pub.lows, 1)
	assert.Equal(t, events.LowStock{
		Kind:      models.KindVariant,
		EntityID:  f.variant.ID,
		Quantity:  5,
		Threshold: 5,
		At:        res.Movement.CreatedAt,
	}, f.pub.lows[0])
}

func TestTakeExactlyAllThenOneMore(t *testing.T) {
	f := newFixture(t, 7, 0)
	ctx := context.Background()

	res, err := f.ledger.Take(ctx, TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 7, ReasonID: f.both.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, res.NewQuantity)
	assert.True(t, res.Low)

	_, err = f.ledger.Take(ctx, TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1, ReasonID: f.both.ID})
	var short *apperr.InsufficientStock
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 1, short.Requested)
	assert.Equal(t, 0, short.Available)

	assert.Equal(t, 0, f.quantity(t, models.KindGift, f.gift.ID))
	assert.EqualValues(t, 1, f.movementCount(t))
}

func TestTakeMoreThanAvailableChangesNothing(t *testing.T) {
	f := newFixture(t, 4, 0)

	_, err := f.ledger.Take(context.Background(), TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 10, ReasonID: f.both.ID})
	var short *apperr.InsufficientStock
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 10, short.Requested)
	assert.Equal(t, 4, short.Available)
	assert.Contains(t, err.Error(), "requested 10, available 4")

	assert.Equal(t, 4, f.quantity(t, models.KindGift, f.gift.ID))
	assert.Zero(t, f.movementCount(t))
	assert.Empty(t, f.pub.movements)
}

func TestTakeValidation(t *testing.T) {
	f := newFixture(t, 10, 10)

	tests := []struct {
		name string
		req  TakeRequest
		want func(error) bool
	}{
		{"zero quantity", TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 0, ReasonID: f.both.ID}, apperr.IsValidation},
		{"negative quantity", TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: -2, ReasonID: f.both.ID}, apperr.IsValidation},
		{"missing reason", TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1}, apperr.IsValidation},
		{"bad kind", TakeRequest{Kind: "pallet", EntityID: f.gift.ID, Quantity: 1, ReasonID: f.both.ID}, apperr.IsValidation},
		{"unknown reason", TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1, ReasonID: 999}, func(err error) bool {
			return errors.Is(err, apperr.ErrInvalidReason)
		}},
		{"apparel reason on gift", TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1, ReasonID: f.apparel.ID}, func(err error) bool {
			return errors.Is(err, apperr.ErrInvalidReason)
		}},
		{"gift reason on variant", TakeRequest{Kind: models.KindVariant, EntityID: f.variant.ID, Quantity: 1, ReasonID: f.gifts.ID}, func(err error) bool {
			return errors.Is(err, apperr.ErrInvalidReason)
		}},
		{"missing gift", TakeRequest{Kind: models.KindGift, EntityID: 999, Quantity: 1, ReasonID: f.both.ID}, func(err error) bool {
			return errors.Is(err, apperr.ErrNotFound)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Take(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, tt.want(err), "unexpected error %v", err)
		})
	}

	assert.Equal(t, 10, f.quantity(t, models.KindGift, f.gift.ID))
	assert.Equal(t, 10, f.quantity(t, models.KindVariant, f.variant.ID))
	assert.Zero(t, f.movementCount(t))
}

func TestSoftDeletedItemIsNotFound(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()
	require.NoError(t, f.db.Delete(&models.Gift{}, f.gift.ID).Error)

	_, err := f.ledger.Take(ctx, TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1, ReasonID: f.both.ID})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.ledger.Return(ctx, ReturnRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReturnHasNoUpperBound(t *testing.T) {
	f := newFixture(t, 3, 0)

	res, err := f.ledger.Return(context.Background(), ReturnRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 500, Notes: "restock"})
	require.NoError(t, err)
	assert.Equal(t, 503, res.NewQuantity)
	assert.Equal(t, models.DirectionReturn, res.Movement.Direction)
	assert.Nil(t, res.Movement.ReasonID)
	assert.Equal(t, 3, res.Movement.QuantityBefore)
	assert.Equal(t, 503, res.Movement.ResultingQuantity)
}

func TestReturnOverflowIsRejected(t *testing.T) {
	f := newFixture(t, 3, 0)
	ctx := context.Background()

	_, err := f.ledger.Return(ctx, ReturnRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: math.MaxInt})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err), "got %v", err)
	assert.Equal(t, 3, f.quantity(t, models.KindGift, f.gift.ID))
	assert.Zero(t, f.movementCount(t))

	res, err := f.ledger.Return(ctx, ReturnRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: math.MaxInt - 3})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, res.NewQuantity)
}

func TestReturnValidation(t *testing.T) {
	f := newFixture(t, 3, 0)

	_, err := f.ledger.Return(context.Background(), ReturnRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 0})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.ledger.Return(context.Background(), ReturnRequest{Kind: models.KindVariant, EntityID: 999, Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestQuantityEqualsInitialPlusReturnsMinusTakes(t *testing.T) {
	f := newFixture(t, 0, 12)
	ctx := context.Background()
	id := f.variant.ID

	ops := []struct {
		take bool
		qty  int
	}{
		{true, 5}, {false, 2}, {true, 9}, {true, 1}, {false, 10}, {true, 4}, {true, 50}, {false, 1},
	}

	want := 12
	for _, op := range ops {
		var err error
		if op.take {
			_, err = f.ledger.Take(ctx, TakeRequest{Kind: models.KindVariant, EntityID: id, Quantity: op.qty, ReasonID: f.both.ID})
		} else {
			_, err = f.ledger.Return(ctx, ReturnRequest{Kind: models.KindVariant, EntityID: id, Quantity: op.qty})
		}
		if op.take && op.qty > want {
			require.True(t, apperr.IsInsufficientStock(err))
			continue
		}
		require.NoError(t, err)
		if op.take {
			want -= op.qty
		} else {
			want += op.qty
		}
	}

	assert.Equal(t, want, f.quantity(t, models.KindVariant, id))

	moves, err := f.ledger.Movements(ctx, MovementFilter{Kind: models.KindVariant, EntityID: id})
	require.NoError(t, err)

	sum := 12
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		assert.Equal(t, sum, m.QuantityBefore)
		if m.Direction == models.DirectionTake {
			sum -= m.QuantityDelta
		} else {
			sum += m.QuantityDelta
		}
		assert.Equal(t, sum, m.ResultingQuantity)
		assert.GreaterOrEqual(t, m.ResultingQuantity, 0)
	}
	assert.Equal(t, want, sum)
	assert.Equal(t, want, moves[0].ResultingQuantity)
}

func TestConcurrentTakesSerialize(t *testing.T) {
	f := newFixtureOn(t, dbtest.NewConcurrent(t, 8), 20, 0)
	ctx := context.Background()

	const workers = 10
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, workers)
	)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.ledger.Take(ctx, TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 3, ReasonID: f.both.ID})
		}(i)
	}
	close(start)
	wg.Wait()

	ok, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.IsInsufficientStock(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 6, ok)
	assert.Equal(t, 4, short)
	assert.Equal(t, 2, f.quantity(t, models.KindGift, f.gift.ID))
	assert.EqualValues(t, 6, f.movementCount(t))

	// each successful take saw the result of the one before it
	var moves []models.StockMovement
	require.NoError(t, f.db.Order("resulting_quantity DESC").Find(&moves).Error)
	want := 20
	for _, m := range moves {
		assert.Equal(t, want, m.QuantityBefore)
		assert.Equal(t, want-3, m.ResultingQuantity)
		want -= 3
	}
}

func TestConcurrentTakesOnDifferentItems(t *testing.T) {
	f := newFixtureOn(t, dbtest.NewConcurrent(t, 8), 10, 10)
	ctx := context.Background()

	const perItem = 5
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		mu    sync.Mutex
		errs  []error
	)
	take := func(kind models.EntityKind, id uint) {
		defer wg.Done()
		<-start
		_, err := f.ledger.Take(ctx, TakeRequest{Kind: kind, EntityID: id, Quantity: 2, ReasonID: f.both.ID})
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	for i := 0; i < perItem; i++ {
		wg.Add(2)
		go take(models.KindGift, f.gift.ID)
		go take(models.KindVariant, f.variant.ID)
	}
	close(start)
	wg.Wait()

	require.Len(t, errs, 2*perItem)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, f.quantity(t, models.KindGift, f.gift.ID))
	assert.Equal(t, 0, f.quantity(t, models.KindVariant, f.variant.ID))
	assert.EqualValues(t, 2*perItem, f.movementCount(t))
}

func TestPublishFailureDoesNotUndoMovement(t *testing.T) {
	f := newFixture(t, 10, 0)
	f.pub.err = errors.New("broker down")

	res, err := f.ledger.Take(context.Background(), TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 2, ReasonID: f.both.ID})
	require.NoError(t, err)
	assert.Equal(t, 8, res.NewQuantity)
	assert.Equal(t, 8, f.quantity(t, models.KindGift, f.gift.ID))
	assert.EqualValues(t, 1, f.movementCount(t))
}

func TestMovementsFilter(t *testing.T) {
	f := newFixture(t, 10, 10)
	ctx := context.Background()

	_, err := f.ledger.Take(ctx, TakeRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1, ReasonID: f.both.ID})
	require.NoError(t, err)
	_, err = f.ledger.Return(ctx, ReturnRequest{Kind: models.KindGift, EntityID: f.gift.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.ledger.Take(ctx, TakeRequest{Kind: models.KindVariant, EntityID: f.variant.ID, Quantity: 2, ReasonID: f.apparel.ID})
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter MovementFilter
		want   int
	}{
		{"all", MovementFilter{}, 3},
		{"gifts", MovementFilter{Kind: models.KindGift}, 2},
		{"takes", MovementFilter{Direction: models.DirectionTake}, 2},
		{"by product", MovementFilter{ProductID: f.variant.ProductID}, 1},
		{"limit", MovementFilter{Limit: 1}, 1},
		{"future window", MovementFilter{From: time.Now().Add(time.Hour)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ledger.Movements(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	all, err := f.ledger.Movements(ctx, MovementFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.KindVariant, all[0].EntityKind, "newest first")
	require.NotNil(t, all[0].Reason)
	assert.Equal(t, "Uniform", all[0].Reason.Name)

	_, err = f.ledger.Movements(ctx, MovementFilter{Direction: "sideways"})
	assert.True(t, apperr.IsValidation(err))
}
