package catalog

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"inventory-backend/internal/models"
)

// CachedStore memoizes successful lookups of an underlying Store. Catalog
// rows have no write path in this service, so entries never go stale in a
// way that matters: the ledger keys by ID, not by name.
type CachedStore struct {
	next       Store
	reasons    *lru.Cache[uint, models.TakeReason]
	giftCats   *lru.Cache[uint, models.GiftCategory]
	apparelCat *lru.Cache[uint, models.ApparelCategory]
	colors     *lru.Cache[uint, models.ApparelColor]
	sizes      *lru.Cache[uint, models.ApparelSize]
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(next Store, size int) (*CachedStore, error) {
	s := &CachedStore{next: next}
	var err error
	if s.reasons, err = lru.New[uint, models.TakeReason](size); err != nil {
		return nil, fmt.Errorf("reason cache: %w", err)
	}
	if s.giftCats, err = lru.New[uint, models.GiftCategory](size); err != nil {
		return nil, fmt.Errorf("gift category cache: %w", err)
	}
	if s.apparelCat, err = lru.New[uint, models.ApparelCategory](size); err != nil {
		return nil, fmt.Errorf("apparel category cache: %w", err)
	}
	if s.colors, err = lru.New[uint, models.ApparelColor](size); err != nil {
		return nil, fmt.Errorf("color cache: %w", err)
	}
	if s.sizes, err = lru.New[uint, models.ApparelSize](size); err != nil {
		return nil, fmt.Errorf("size cache: %w", err)
	}
	return s, nil
}

func (s *CachedStore) ResolveReason(ctx context.Context, id uint) (models.TakeReason, error) {
	return cached(ctx, s.reasons, id, s.next.ResolveReason)
}

func (s *CachedStore) ResolveGiftCategory(ctx context.Context, id uint) (models.GiftCategory, error) {
	return cached(ctx, s.giftCats, id, s.next.ResolveGiftCategory)
}

func (s *CachedStore) ResolveApparelCategory(ctx context.Context, id uint) (models.ApparelCategory, error) {
	return cached(ctx, s.apparelCat, id, s.next.ResolveApparelCategory)
}

func (s *CachedStore) ResolveColor(ctx context.Context, id uint) (models.ApparelColor, error) {
	return cached(ctx, s.colors, id, s.next.ResolveColor)
}

func (s *CachedStore) ResolveSize(ctx context.Context, id uint) (models.ApparelSize, error) {
	return cached(ctx, s.sizes, id, s.next.ResolveSize)
}

// misses are not cached
func cached[T any](ctx context.Context, c *lru.Cache[uint, T], id uint, load func(context.Context, uint) (T, error)) (T, error) {
	if v, ok := c.Get(id); ok {
		return v, nil
	}
	v, err := load(ctx, id)
	if err != nil {
		return v, err
	}
	c.Add(id, v)
	return v, nil
}
