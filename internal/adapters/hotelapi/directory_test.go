package hotelapi_test

import (
	"context"
	"errors"
	"testing"

	"hotel_scout/internal/adapters/hotelapi"
	"hotel_scout/internal/domain"
)

type fakeDirectory struct {
	calls int
	out   []domain.Destination
	err   error
}

func (f *fakeDirectory) SearchCandidates(ctx context.Context, freeText string) ([]domain.Destination, error) {
	f.calls++
	return f.out, f.err
}

type mapCache struct {
	vals map[string][]domain.Destination
	sets int
}

func (c *mapCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.vals[key]
	if !ok {
		return false, nil
	}
	*(dst.(*[]domain.Destination)) = v
	return true, nil
}

func (c *mapCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.vals == nil {
		c.vals = map[string][]domain.Destination{}
	}
	c.vals[key] = v.([]domain.Destination)
	c.sets++
	return nil
}

func (c *mapCache) Del(ctx context.Context, key string) error {
	delete(c.vals, key)
	return nil
}

func TestCachedDirectory_MemoizesByNormalizedQuery(t *testing.T) {
	inner := &fakeDirectory{out: []domain.Destination{
		{Name: "Lisbon, Portugal", RegionID: "6054439", Lat: 38.72, Lon: -9.13},
	}}
	cache := &mapCache{}
	d := hotelapi.NewCachedDirectory(inner, cache, 900)
	ctx := context.Background()

	got, err := d.SearchCandidates(ctx, "Lisbon")
	if err != nil || len(got) != 1 {
		t.Fatalf("first lookup: %v %v", got, err)
	}
	// case and surrounding whitespace hit the same entry
	got, err = d.SearchCandidates(ctx, "  lisbon ")
	if err != nil || len(got) != 1 || got[0].RegionID != "6054439" {
		t.Fatalf("second lookup: %v %v", got, err)
	}
	if inner.calls != 1 {
		t.Fatalf("upstream calls: %d", inner.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets: %d", cache.sets)
	}
}

func TestCachedDirectory_ErrorsAndEmptyAnswersNotCached(t *testing.T) {
	inner := &fakeDirectory{err: errors.New("quota exceeded")}
	cache := &mapCache{}
	d := hotelapi.NewCachedDirectory(inner, cache, 900)
	ctx := context.Background()

	if _, err := d.SearchCandidates(ctx, "Lisbon"); err == nil {
		t.Fatal("upstream error swallowed")
	}

	// upstream recovers but knows nothing; the miss is not memoized either
	inner.err = nil
	if got, err := d.SearchCandidates(ctx, "Lisbon"); err != nil || len(got) != 0 {
		t.Fatalf("empty lookup: %v %v", got, err)
	}
	if cache.sets != 0 {
		t.Fatalf("cache sets: %d", cache.sets)
	}

	inner.out = []domain.Destination{{Name: "Lisbon, Portugal", RegionID: "6054439"}}
	if got, err := d.SearchCandidates(ctx, "Lisbon"); err != nil || len(got) != 1 {
		t.Fatalf("recovered lookup: %v %v", got, err)
	}
	if inner.calls != 3 {
		t.Fatalf("upstream calls: %d", inner.calls)
	}
}
