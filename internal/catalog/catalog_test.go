package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/database/dbtest"
	"inventory-backend/internal/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, zap.NewNop()))
	require.NoError(t, Seed(ctx, db, zap.NewNop()))

	var reasons, sizes, colors, apparelCats, giftCats int64
	db.Model(&models.TakeReason{}).Count(&reasons)
	db.Model(&models.ApparelSize{}).Count(&sizes)
	db.Model(&models.ApparelColor{}).Count(&colors)
	db.Model(&models.ApparelCategory{}).Count(&apparelCats)
	db.Model(&models.GiftCategory{}).Count(&giftCats)

	assert.EqualValues(t, len(seedReasons), reasons)
	assert.EqualValues(t, 9+15+7, sizes)
	assert.EqualValues(t, len(seedColors), colors)
	assert.EqualValues(t, len(seedApparelCategories), apparelCats)
	assert.EqualValues(t, len(seedGiftCategories), giftCats)
}

func TestGormStoreResolve(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	s := NewGormStore(db)

	reason := models.TakeReason{Name: "Event", AppliesTo: models.ReasonScopeGifts}
	require.NoError(t, db.Create(&reason).Error)

	got, err := s.ResolveReason(ctx, reason.ID)
	require.NoError(t, err)
	assert.Equal(t, "Event", got.Name)
	assert.Equal(t, models.ReasonScopeGifts, got.AppliesTo)

	_, err = s.ResolveReason(ctx, reason.ID+100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.ResolveColor(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.ResolveSize(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.ResolveGiftCategory(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.ResolveApparelCategory(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListReasonsByScope(t *testing.T) {
	db := dbtest.New(t)
	s := NewGormStore(db)

	require.NoError(t, db.Create(&[]models.TakeReason{
		{Name: "Gala", AppliesTo: models.ReasonScopeGifts},
		{Name: "Uniform", AppliesTo: models.ReasonScopeApparel},
		{Name: "Other", AppliesTo: models.ReasonScopeBoth},
	}).Error)

	names := func(rs []models.TakeReason) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Name)
		}
		return out
	}

	tests := []struct {
		scope models.ReasonScope
		want  []string
	}{
		{"", []string{"Gala", "Other", "Uniform"}},
		{models.ReasonScopeBoth, []string{"Gala", "Other", "Uniform"}},
		{models.ReasonScopeGifts, []string{"Gala", "Other"}},
		{models.ReasonScopeApparel, []string{"Other", "Uniform"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			got, err := s.ListReasons(context.Background(), tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

type countingStore struct {
	Store
	calls int
}

func (c *countingStore) ResolveReason(ctx context.Context, id uint) (models.TakeReason, error) {
	c.calls++
	if id == 0 {
		return models.TakeReason{}, apperr.ErrNotFound
	}
	return models.TakeReason{ID: id, Name: "Event", AppliesTo: models.ReasonScopeBoth}, nil
}

func TestCachedStoreMemoizesHitsOnly(t *testing.T) {
	next := &countingStore{}
	s, err := NewCachedStore(next, 8)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := s.ResolveReason(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, uint(7), r.ID)
	}
	assert.Equal(t, 1, next.calls)

	for i := 0; i < 2; i++ {
		_, err := s.ResolveReason(ctx, 0)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	}
	assert.Equal(t, 3, next.calls)
}

func TestNewCachedStoreRejectsBadSize(t *testing.T) {
	_, err := NewCachedStore(&countingStore{}, 0)
	assert.Error(t, err)
}
