package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"hotel_scout/internal/app"
	"hotel_scout/internal/domain"
)

// ---- fakes ----

// fakeSource serves scripted listing pages in call order and synthesizes
// details on demand. Safe for concurrent detail lookups.
type fakeSource struct {
	mu sync.Mutex

	pages   [][]domain.Listing
	listErr error
	queries []domain.ListQuery

	details     map[string]domain.Detail
	detailErr   error
	detailCalls int
}

func (f *fakeSource) ListProperties(ctx context.Context, q domain.ListQuery) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := len(f.queries) - 1
	if idx < len(f.pages) {
		return f.pages[idx], nil
	}
	return nil, nil
}

func (f *fakeSource) GetPropertyDetail(ctx context.Context, id string) (domain.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.detailErr != nil {
		return domain.Detail{}, f.detailErr
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return domain.Detail{AddressLine: "Address of " + id}, nil
}

func (f *fakeSource) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func listing(id string, price, distance float64) domain.Listing {
	return domain.Listing{Name: "Hotel " + id, ID: id, Price: price, Distance: distance}
}

func baseSearch(mode domain.Mode, want int) domain.Search {
	s := domain.NewSearch(domain.Destination{Name: "Lisbon, Portugal", RegionID: "6054439"}, time.Now())
	s.CheckIn = domain.Day{Day: 14, Month: 9, Year: 2026}
	s.CheckOut = domain.Day{Day: 19, Month: 9, Year: 2026}
	s.Rooms = []domain.RoomSpec{{Adults: 2}}
	s.RequestedCount = want
	s.Mode = mode
	return s
}

var transientErr = fmt.Errorf("remote 503: %w", domain.ErrSourceUnavailable)

// ---- tests ----

func TestCheapestFirst_SinglePageTruncated(t *testing.T) {
	src := &fakeSource{pages: [][]domain.Listing{{
		listing("a", 40, 1), listing("b", 55, 2), listing("c", 70, 3),
		listing("d", 88, 1.5), listing("e", 120, 4),
	}}}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{PageSize: 5}, zerolog.Nop())

	s := baseSearch(domain.ModeLow, 3)
	if err := orch.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}
	if src.listCalls() != 1 {
		t.Fatalf("list calls: %d", src.listCalls())
	}
	if len(s.Results) != 3 {
		t.Fatalf("results: %d", len(s.Results))
	}
	for i, want := range []string{"a", "b", "c"} {
		if s.Results[i].ID != want {
			t.Fatalf("result %d: %+v", i, s.Results[i])
		}
		if s.Results[i].Address == "" {
			t.Fatalf("result %d missing address", i)
		}
	}
}

func TestPriciestFirst_AdvancesOffsetByFullPage(t *testing.T) {
	src := &fakeSource{pages: [][]domain.Listing{
		{listing("a", 10, 1), listing("b", 20, 1), listing("c", 30, 1)},
		{listing("d", 40, 1), listing("e", 50, 1), listing("f", 60, 1)},
		{listing("g", 70, 1), listing("h", 80, 1)},
	}}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{PageSize: 3}, zerolog.Nop())

	s := baseSearch(domain.ModeHigh, 4)
	if err := orch.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if src.listCalls() != 3 {
		t.Fatalf("list calls: %d", src.listCalls())
	}
	// a full-page step means no listing appears on two pages
	for i, wantOffset := range []int{0, 3, 6} {
		if got := src.queries[i].Offset; got != wantOffset {
			t.Fatalf("call %d offset: got %d want %d", i, got, wantOffset)
		}
	}
	if len(s.Results) != 4 {
		t.Fatalf("results: %d", len(s.Results))
	}
	for i, want := range []string{"h", "g", "f", "e"} {
		if s.Results[i].ID != want {
			t.Fatalf("result %d: %+v", i, s.Results[i])
		}
	}
}

func TestBestDeal_BoundsAreExclusive(t *testing.T) {
	src := &fakeSource{pages: [][]domain.Listing{{
		listing("atmin", 50, 2),      // price == min, out
		listing("atmax", 150, 2),     // price == max, out
		listing("near", 100, 1),      // distance == min, out
		listing("keep1", 100, 2),     // in
		listing("keep2", 149.99, 2.9), // in
		listing("far", 100, 3),       // distance == max, out
	}}}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{PageSize: 50}, zerolog.Nop())

	s := baseSearch(domain.ModeBestDeal, 5)
	s.PriceRange = &domain.Range{Min: 50, Max: 150}
	s.DistanceRange = &domain.Range{Min: 1, Max: 3}
	if err := orch.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}

	if src.listCalls() != 1 {
		t.Fatalf("list calls: %d", src.listCalls())
	}
	q := src.queries[0]
	if q.Sort != domain.SortDistance {
		t.Fatalf("sort: %s", q.Sort)
	}
	if q.PriceFilter == nil || q.PriceFilter.Min != 50 || q.PriceFilter.Max != 150 {
		t.Fatalf("price filter: %+v", q.PriceFilter)
	}
	if len(s.Results) != 2 || s.Results[0].ID != "keep1" || s.Results[1].ID != "keep2" {
		t.Fatalf("results: %+v", s.Results)
	}
}

func TestBestDeal_MissingBoundsFails(t *testing.T) {
	src := &fakeSource{}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{}, zerolog.Nop())

	s := baseSearch(domain.ModeBestDeal, 3)
	if err := orch.Run(context.Background(), &s); err == nil {
		t.Fatal("expected error")
	}
	if src.listCalls() != 0 {
		t.Fatalf("list calls: %d", src.listCalls())
	}
}

func TestListingRetries_ExhaustAfterFiveAttempts(t *testing.T) {
	src := &fakeSource{listErr: transientErr}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{RetryLimit: 5}, zerolog.Nop())

	s := baseSearch(domain.ModeLow, 3)
	err := orch.Run(context.Background(), &s)
	if !errors.Is(err, domain.ErrSearchFailed) {
		t.Fatalf("err: %v", err)
	}
	if src.listCalls() != 5 {
		t.Fatalf("list calls: got %d want 5", src.listCalls())
	}
	if len(s.Results) != 0 {
		t.Fatalf("results should stay empty: %+v", s.Results)
	}
}

func TestListingFailsFastOnPermanentError(t *testing.T) {
	src := &fakeSource{listErr: errors.New("malformed request")}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{}, zerolog.Nop())

	s := baseSearch(domain.ModeLow, 3)
	err := orch.Run(context.Background(), &s)
	if err == nil || errors.Is(err, domain.ErrSearchFailed) {
		t.Fatalf("err: %v", err)
	}
	if src.listCalls() != 1 {
		t.Fatalf("list calls: got %d want 1", src.listCalls())
	}
}

func TestEnrich_KeepsListingOrderAndCapsPhotos(t *testing.T) {
	page := []domain.Listing{
		listing("a", 10, 1), listing("b", 20, 1), listing("c", 30, 1), listing("d", 40, 1),
	}
	details := make(map[string]domain.Detail, len(page))
	for _, l := range page {
		details[l.ID] = domain.Detail{
			AddressLine: "Street " + l.ID,
			PhotoURLs: []string{
				"https://img/" + l.ID + "/1", "https://img/" + l.ID + "/2",
				"https://img/" + l.ID + "/3", "https://img/" + l.ID + "/4",
			},
		}
	}
	src := &fakeSource{pages: [][]domain.Listing{page}, details: details}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{PageSize: 10, EnrichWorkers: 2}, zerolog.Nop())

	s := baseSearch(domain.ModeLow, 4)
	s.PhotoCount = 2
	if err := orch.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		h := s.Results[i]
		if h.ID != want {
			t.Fatalf("order broken at %d: %+v", i, h)
		}
		if h.Address != "Street "+want {
			t.Fatalf("address: %+v", h)
		}
		if len(h.PhotoURLs) != 2 {
			t.Fatalf("photos for %s: %v", want, h.PhotoURLs)
		}
	}
}

func TestEnrich_DetailFailureAbortsSearch(t *testing.T) {
	src := &fakeSource{
		pages:     [][]domain.Listing{{listing("a", 10, 1)}},
		detailErr: transientErr,
	}
	orch := app.NewOrchestrator(src, app.OrchestratorConfig{RetryLimit: 5}, zerolog.Nop())

	s := baseSearch(domain.ModeLow, 1)
	err := orch.Run(context.Background(), &s)
	if !errors.Is(err, domain.ErrSearchFailed) {
		t.Fatalf("err: %v", err)
	}
	if src.detailCalls != 5 {
		t.Fatalf("detail calls: got %d want 5", src.detailCalls)
	}
	if len(s.Results) != 0 {
		t.Fatalf("partial enrichment leaked: %+v", s.Results)
	}
}
