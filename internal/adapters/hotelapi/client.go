package hotelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_scout/internal/adapters/observability"
	"hotel_scout/internal/domain"
)

// Client talks to a hotels4-style listing API. It performs exactly one attempt
// per call; bounded retry loops live with the callers so the retry budget is
// observable there.
type Client struct {
	base   string
	hc     *http.Client
	key    string
	host   string
	locale string
	rl     *rate.Limiter
}

var (
	ErrUnauthorized = errors.New("hotelapi: unauthorized")
	ErrForbidden    = errors.New("hotelapi: forbidden")
)

func New(base, key, host, locale string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: 20 * time.Second},
		key:    key,
		host:   host,
		locale: locale,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- wire shapes (only the fields we consume) ----

type dayDTO struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

type roomDTO struct {
	Adults   int      `json:"adults"`
	Children []ageDTO `json:"children,omitempty"`
}

type ageDTO struct {
	Age int `json:"age"`
}

type priceFilterDTO struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type listFiltersDTO struct {
	AvailableFilter string          `json:"availableFilter"`
	Price           *priceFilterDTO `json:"price,omitempty"`
}

type listRequestDTO struct {
	Currency    string `json:"currency"`
	Locale      string `json:"locale"`
	Destination struct {
		RegionID    string `json:"regionId"`
		Coordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	} `json:"destination"`
	CheckInDate          dayDTO         `json:"checkInDate"`
	CheckOutDate         dayDTO         `json:"checkOutDate"`
	Rooms                []roomDTO      `json:"rooms"`
	ResultsStartingIndex int            `json:"resultsStartingIndex"`
	ResultsSize          int            `json:"resultsSize"`
	Sort                 string         `json:"sort"`
	Filters              listFiltersDTO `json:"filters"`
}

type listingDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price struct {
		Lead struct {
			Amount float64 `json:"amount"`
		} `json:"lead"`
	} `json:"price"`
	DestinationInfo struct {
		DistanceFromDestination struct {
			Value float64 `json:"value"`
		} `json:"distanceFromDestination"`
	} `json:"destinationInfo"`
}

type listResponseDTO struct {
	Errors []json.RawMessage `json:"errors"`
	Data   *struct {
		PropertySearch *struct {
			Properties []listingDTO `json:"properties"`
		} `json:"propertySearch"`
	} `json:"data"`
}

type detailRequestDTO struct {
	Currency   string `json:"currency"`
	Locale     string `json:"locale"`
	PropertyID string `json:"propertyId"`
}

type detailResponseDTO struct {
	Errors []json.RawMessage `json:"errors"`
	Data   *struct {
		PropertyInfo *struct {
			Summary struct {
				Location struct {
					Address struct {
						AddressLine string `json:"addressLine"`
					} `json:"address"`
				} `json:"location"`
			} `json:"summary"`
			PropertyGallery struct {
				Images []struct {
					Image struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"images"`
			} `json:"propertyGallery"`
		} `json:"propertyInfo"`
	} `json:"data"`
}

type citySearchResponseDTO struct {
	Errors []json.RawMessage `json:"errors"`
	SR     []struct {
		Type        string `json:"type"`
		GaiaID      string `json:"gaiaId"`
		RegionNames struct {
			FullName string `json:"fullName"`
		} `json:"regionNames"`
		Coordinates struct {
			Lat  string `json:"lat"`
			Long string `json:"long"`
		} `json:"coordinates"`
	} `json:"sr"`
}

// ---- domain.HotelSource ----

func (c *Client) ListProperties(ctx context.Context, q domain.ListQuery) ([]domain.Listing, error) {
	body := listRequestDTO{
		Currency:             "USD",
		Locale:               c.locale,
		CheckInDate:          dayDTO{Day: q.CheckIn.Day, Month: q.CheckIn.Month, Year: q.CheckIn.Year},
		CheckOutDate:         dayDTO{Day: q.CheckOut.Day, Month: q.CheckOut.Month, Year: q.CheckOut.Year},
		Rooms:                mapRooms(q.Rooms),
		ResultsStartingIndex: q.Offset,
		ResultsSize:          q.Size,
		Sort:                 string(q.Sort),
		Filters:              listFiltersDTO{AvailableFilter: "SHOW_AVAILABLE_ONLY"},
	}
	body.Destination.RegionID = q.Destination.RegionID
	body.Destination.Coordinates.Latitude = q.Destination.Lat
	body.Destination.Coordinates.Longitude = q.Destination.Lon
	if q.PriceFilter != nil {
		body.Filters.Price = &priceFilterDTO{Min: q.PriceFilter.Min, Max: q.PriceFilter.Max}
	}

	var out listResponseDTO
	if err := c.post(ctx, "/properties/v2/list", "list", body, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 || out.Data == nil || out.Data.PropertySearch == nil {
		return nil, fmt.Errorf("list: error-flagged payload: %w", domain.ErrSourceUnavailable)
	}
	listings := make([]domain.Listing, 0, len(out.Data.PropertySearch.Properties))
	for _, p := range out.Data.PropertySearch.Properties {
		listings = append(listings, domain.Listing{
			Name:     p.Name,
			ID:       p.ID,
			Price:    p.Price.Lead.Amount,
			Distance: p.DestinationInfo.DistanceFromDestination.Value,
		})
	}
	return listings, nil
}

func (c *Client) GetPropertyDetail(ctx context.Context, id string) (domain.Detail, error) {
	var out detailResponseDTO
	err := c.post(ctx, "/properties/v2/detail", "detail",
		detailRequestDTO{Currency: "USD", Locale: c.locale, PropertyID: id}, &out)
	if err != nil {
		return domain.Detail{}, err
	}
	if len(out.Errors) > 0 || out.Data == nil || out.Data.PropertyInfo == nil {
		return domain.Detail{}, fmt.Errorf("detail %s: error-flagged payload: %w", id, domain.ErrSourceUnavailable)
	}
	info := out.Data.PropertyInfo
	d := domain.Detail{AddressLine: info.Summary.Location.Address.AddressLine}
	for _, img := range info.PropertyGallery.Images {
		if img.Image.URL != "" {
			d.PhotoURLs = append(d.PhotoURLs, img.Image.URL)
		}
	}
	return d, nil
}

// ---- domain.CityDirectory ----

func (c *Client) SearchCandidates(ctx context.Context, freeText string) ([]domain.Destination, error) {
	u := fmt.Sprintf("%s/locations/v3/search?q=%s&locale=%s",
		c.base, url.QueryEscape(freeText), url.QueryEscape(c.locale))

	var out citySearchResponseDTO
	if err := c.do(ctx, http.MethodGet, u, "locations", nil, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("locations: error-flagged payload: %w", domain.ErrSourceUnavailable)
	}
	var found []domain.Destination
	for _, r := range out.SR {
		if r.Type != "CITY" {
			continue
		}
		lat, errLat := strconv.ParseFloat(r.Coordinates.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Coordinates.Long, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		found = append(found, domain.Destination{
			Name:     r.RegionNames.FullName,
			Lat:      lat,
			Lon:      lon,
			RegionID: r.GaiaID,
		})
	}
	return found, nil
}

// ---- internals ----

func mapRooms(rooms []domain.RoomSpec) []roomDTO {
	out := make([]roomDTO, len(rooms))
	for i, r := range rooms {
		out[i].Adults = r.Adults
		for _, age := range r.ChildAges {
			out[i].Children = append(out[i].Children, ageDTO{Age: age})
		}
	}
	return out
}

func (c *Client) post(ctx context.Context, path, endpoint string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, c.base+path, endpoint, b, out)
}

func (c *Client) do(ctx context.Context, method, u, endpoint string, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.key)
	req.Header.Set("X-RapidAPI-Host", c.host)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("hotels", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %v: %w", endpoint, err, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("hotels", endpoint, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode: %v: %w", endpoint, err, domain.ErrSourceUnavailable)
		}
		return nil

	case http.StatusNotFound:
		return domain.ErrNotFound

	case http.StatusUnauthorized:
		return ErrUnauthorized

	case http.StatusForbidden:
		return ErrForbidden

	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: remote %d: %w", endpoint, resp.StatusCode, domain.ErrSourceUnavailable)

	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
