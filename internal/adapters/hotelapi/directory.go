package hotelapi

import (
	"context"
	"strings"

	"hotel_scout/internal/domain"
)

// CachedDirectory memoizes city lookups keyed by the normalized query, so
// retyping the same city does not spend upstream quota.
type CachedDirectory struct {
	inner  domain.CityDirectory
	cache  domain.Cache
	ttlSec int
}

func NewCachedDirectory(inner domain.CityDirectory, cache domain.Cache, ttlSec int) *CachedDirectory {
	return &CachedDirectory{inner: inner, cache: cache, ttlSec: ttlSec}
}

func (d *CachedDirectory) SearchCandidates(ctx context.Context, freeText string) ([]domain.Destination, error) {
	key := cityCacheKey(freeText)
	var cached []domain.Destination
	if ok, err := d.cache.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	found, err := d.inner.SearchCandidates(ctx, freeText)
	if err != nil {
		return nil, err
	}
	// empty answers are not memoized; typos should recover on the next try
	if len(found) > 0 {
		_ = d.cache.Set(ctx, key, found, d.ttlSec)
	}
	return found, nil
}

func cityCacheKey(freeText string) string {
	return "cities:" + strings.ToLower(strings.TrimSpace(freeText))
}
