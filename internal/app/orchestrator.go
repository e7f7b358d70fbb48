package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hotel_scout/internal/adapters/observability"
	"hotel_scout/internal/domain"
)

// OrchestratorConfig tunes paging and retry behavior. Zero values fall back to
// the defaults the upstream source was measured against.
type OrchestratorConfig struct {
	PageSize      int // listing page size, default 200
	RetryLimit    int // attempts per listing/detail call, default 5
	EnrichWorkers int // concurrent detail lookups, default 4
}

// Orchestrator turns a fully-specified search into an enriched hotel list
// using one of the three retrieval strategies.
type Orchestrator struct {
	source        domain.HotelSource
	pageSize      int
	retryLimit    int
	enrichWorkers int
	log           zerolog.Logger
}

func NewOrchestrator(source domain.HotelSource, cfg OrchestratorConfig, log zerolog.Logger) *Orchestrator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 5
	}
	if cfg.EnrichWorkers <= 0 {
		cfg.EnrichWorkers = 4
	}
	return &Orchestrator{
		source:        source,
		pageSize:      cfg.PageSize,
		retryLimit:    cfg.RetryLimit,
		enrichWorkers: cfg.EnrichWorkers,
		log:           log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes the search's strategy and fills s.Results with hotels enriched
// by address and up to s.PhotoCount photo URLs. On any retry exhaustion the
// whole call fails; partial enrichment is not an accepted outcome.
func (o *Orchestrator) Run(ctx context.Context, s *domain.Search) error {
	start := time.Now()

	var listings []domain.Listing
	var err error
	switch s.Mode {
	case domain.ModeLow:
		listings, err = o.cheapestFirst(ctx, *s)
	case domain.ModeHigh:
		listings, err = o.priciestFirst(ctx, *s)
	case domain.ModeBestDeal:
		listings, err = o.bestDeal(ctx, *s)
	default:
		err = fmt.Errorf("unknown search mode %q", s.Mode)
	}

	var hotels []domain.Hotel
	if err == nil {
		hotels, err = o.enrich(ctx, listings, s.PhotoCount)
	}

	observability.ObserveSearch(string(s.Mode), err, time.Since(start))
	if err != nil {
		o.log.Warn().Str("search_id", s.ID).Str("mode", string(s.Mode)).Err(err).
			Dur("duration", time.Since(start)).Msg("search failed")
		return err
	}

	s.Results = hotels
	o.log.Info().Str("search_id", s.ID).Str("mode", string(s.Mode)).
		Int("results", len(hotels)).Dur("duration", time.Since(start)).Msg("search completed")
	return nil
}

// cheapestFirst issues a single ascending-price page and keeps the head.
func (o *Orchestrator) cheapestFirst(ctx context.Context, s domain.Search) ([]domain.Listing, error) {
	size := o.pageSize
	if s.RequestedCount > size {
		size = s.RequestedCount
	}
	page, err := o.fetchPage(ctx, listQuery(s, domain.SortPriceAscending, 0, size, nil))
	if err != nil {
		return nil, err
	}
	return truncate(page, s.RequestedCount), nil
}

// priciestFirst walks every ascending-price page (the source cannot sort
// descending), concatenates them in fetch order, reverses the whole list and
// keeps the head. The offset advances by the full page size; earlier revisions
// stepped by pageSize-1 and double-counted one listing per page boundary.
func (o *Orchestrator) priciestFirst(ctx context.Context, s domain.Search) ([]domain.Listing, error) {
	var all []domain.Listing
	for offset := 0; ; offset += o.pageSize {
		page, err := o.fetchPage(ctx, listQuery(s, domain.SortPriceAscending, offset, o.pageSize, nil))
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < o.pageSize {
			break
		}
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return truncate(all, s.RequestedCount), nil
}

// bestDeal fetches one distance-sorted page with the source-side price filter
// applied, then re-filters client side with exclusive bounds. Only the first
// page of distance-sorted listings is ever considered.
func (o *Orchestrator) bestDeal(ctx context.Context, s domain.Search) ([]domain.Listing, error) {
	if s.PriceRange == nil || s.DistanceRange == nil {
		return nil, fmt.Errorf("best-deal search %s is missing price or distance bounds", s.ID)
	}
	page, err := o.fetchPage(ctx, listQuery(s, domain.SortDistance, 0, o.pageSize, s.PriceRange))
	if err != nil {
		return nil, err
	}
	var kept []domain.Listing
	for _, l := range page {
		// client-side bounds are authoritative even though the source already
		// filtered on price; both comparisons use unrounded values
		if s.PriceRange.Contains(l.Price) && s.DistanceRange.Contains(l.Distance) {
			kept = append(kept, l)
		}
	}
	return truncate(kept, s.RequestedCount), nil
}

// enrich fetches details for every surviving listing. Lookups run under a
// bounded group but land by index, so output order matches listing order.
func (o *Orchestrator) enrich(ctx context.Context, listings []domain.Listing, photoCount int) ([]domain.Hotel, error) {
	hotels := make([]domain.Hotel, len(listings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.enrichWorkers)
	for i, l := range listings {
		i, l := i, l
		g.Go(func() error {
			d, err := o.fetchDetail(gctx, l.ID)
			if err != nil {
				return err
			}
			h := domain.Hotel{
				Name:          l.Name,
				ID:            l.ID,
				PricePerNight: l.Price,
				Distance:      l.Distance,
				Address:       d.AddressLine,
			}
			if photoCount > 0 {
				n := photoCount
				if n > len(d.PhotoURLs) {
					n = len(d.PhotoURLs)
				}
				h.PhotoURLs = append([]string(nil), d.PhotoURLs[:n]...)
			}
			hotels[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hotels, nil
}

func (o *Orchestrator) fetchPage(ctx context.Context, q domain.ListQuery) ([]domain.Listing, error) {
	var lastErr error
	for attempt := 1; attempt <= o.retryLimit; attempt++ {
		page, err := o.source.ListProperties(ctx, q)
		if err == nil {
			return page, nil
		}
		if !domain.IsTransient(err) {
			return nil, err
		}
		lastErr = err
		o.log.Warn().Int("attempt", attempt).Int("offset", q.Offset).Err(err).Msg("listing fetch failed")
	}
	return nil, fmt.Errorf("listing retries exhausted: %v: %w", lastErr, domain.ErrSearchFailed)
}

func (o *Orchestrator) fetchDetail(ctx context.Context, id string) (domain.Detail, error) {
	var lastErr error
	for attempt := 1; attempt <= o.retryLimit; attempt++ {
		d, err := o.source.GetPropertyDetail(ctx, id)
		if err == nil {
			return d, nil
		}
		if !domain.IsTransient(err) {
			return domain.Detail{}, err
		}
		lastErr = err
		o.log.Warn().Int("attempt", attempt).Str("hotel_id", id).Err(err).Msg("detail fetch failed")
	}
	return domain.Detail{}, fmt.Errorf("detail retries exhausted for %s: %v: %w", id, lastErr, domain.ErrSearchFailed)
}

func listQuery(s domain.Search, sort domain.SortOrder, offset, size int, price *domain.Range) domain.ListQuery {
	return domain.ListQuery{
		Destination: s.Destination,
		CheckIn:     s.CheckIn,
		CheckOut:    s.CheckOut,
		Rooms:       s.Rooms,
		Sort:        sort,
		Offset:      offset,
		Size:        size,
		PriceFilter: price,
	}
}

func truncate(listings []domain.Listing, n int) []domain.Listing {
	if n > 0 && len(listings) > n {
		return listings[:n]
	}
	return listings
}
