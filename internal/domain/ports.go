package domain

import "context"

// SortOrder is the listing sort requested from the hotel source.
type SortOrder string

const (
	SortPriceAscending SortOrder = "PRICE_LOW_TO_HIGH"
	SortDistance       SortOrder = "DISTANCE"
)

// ListQuery describes one page request against the hotel source.
type ListQuery struct {
	Destination Destination
	CheckIn     Day
	CheckOut    Day
	Rooms       []RoomSpec
	Sort        SortOrder
	Offset      int
	Size        int
	PriceFilter *Range // source-side filter, BEST_DEAL only
}

// Listing is the lightweight record returned by a bulk query.
type Listing struct {
	Name     string
	ID       string
	Price    float64
	Distance float64
}

// Detail is the per-hotel enrichment record.
type Detail struct {
	AddressLine string
	PhotoURLs   []string
}

// HotelSource is the external listing/detail query surface. Transient failures
// are reported as errors matching IsTransient; the source performs no retries
// of its own.
type HotelSource interface {
	ListProperties(ctx context.Context, q ListQuery) ([]Listing, error)
	GetPropertyDetail(ctx context.Context, id string) (Detail, error)
}

// UserStore persists User records keyed by id. Upsert replaces the single
// matching entry atomically; there is no whole-store rewrite.
type UserStore interface {
	LoadAll(ctx context.Context) (map[int64]User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Upsert(ctx context.Context, u User) error
}

// Choice is one discrete option offered to the user.
type Choice struct {
	Label string
	Data  string
}

// MessagingChannel delivers text, choice prompts and hotel cards to a session.
type MessagingChannel interface {
	SendText(ctx context.Context, sessionID int64, text string) error
	SendChoices(ctx context.Context, sessionID int64, text string, choices []Choice) error
	SendHotelCard(ctx context.Context, sessionID int64, caption string, photoURLs []string) error
}

// CityDirectory resolves free text into destination candidates.
type CityDirectory interface {
	SearchCandidates(ctx context.Context, freeText string) ([]Destination, error)
}

// CurrencyConverter converts a source-currency amount for display. Failure is
// reported as ErrConversionUnavailable and degrades to the source price.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64) (float64, error)
}

// Cache is a keyed JSON cache with TTLs in seconds.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// GreetingClassifier reports whether free text is a greeting.
type GreetingClassifier func(text string) bool
