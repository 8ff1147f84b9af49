package category

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/transmission-savoirs/api/internal/types"
)

var _ LookupRepo = (*CachedLookupRepo)(nil)

const (
	categoriesKey = "categories"
	conditionsKey = "conditions"
	typesKey      = "types"
)

// CachedLookupRepo keeps the reference tables in process memory. The tables
// change only through the admin endpoints, which drop the cached entry.
type CachedLookupRepo struct {
	inner LookupRepo
	cache *gocache.Cache
}

func NewCachedLookupRepo(inner LookupRepo, ttl time.Duration) *CachedLookupRepo {
	return &CachedLookupRepo{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedLookupRepo) cached(ctx context.Context, key string,
	fetch func(context.Context) ([]types.Lookup, error)) ([]types.Lookup, error) {
	if hit, found := c.cache.Get(key); found {
		return hit.([]types.Lookup), nil
	}
	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		c.cache.SetDefault(key, items)
	}
	return items, nil
}

func (c *CachedLookupRepo) GetAllCategories(ctx context.Context) ([]types.Lookup, error) {
	return c.cached(ctx, categoriesKey, c.inner.GetAllCategories)
}

func (c *CachedLookupRepo) GetAllConditions(ctx context.Context) ([]types.Lookup, error) {
	return c.cached(ctx, conditionsKey, c.inner.GetAllConditions)
}

func (c *CachedLookupRepo) GetAllTypes(ctx context.Context) ([]types.Lookup, error) {
	return c.cached(ctx, typesKey, c.inner.GetAllTypes)
}

func (c *CachedLookupRepo) CreateCategory(ctx context.Context, name string) (*types.Lookup, error) {
	item, err := c.inner.CreateCategory(ctx, name)
	if err == nil {
		c.cache.Delete(categoriesKey)
	}
	return item, err
}

func (c *CachedLookupRepo) EditCategory(ctx context.Context, id int, name string) (*types.Lookup, error) {
	item, err := c.inner.EditCategory(ctx, id, name)
	if err == nil {
		c.cache.Delete(categoriesKey)
	}
	return item, err
}

func (c *CachedLookupRepo) DeleteCategory(ctx context.Context, id int) (*types.Lookup, error) {
	item, err := c.inner.DeleteCategory(ctx, id)
	if err == nil {
		c.cache.Delete(categoriesKey)
	}
	return item, err
}
