package hotelapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotel_scout/internal/adapters/hotelapi"
	"hotel_scout/internal/domain"
)

func newClient(t *testing.T, srv *httptest.Server) *hotelapi.Client {
	t.Helper()
	c, err := hotelapi.New(srv.URL, "test-key", "test-host", "en_US", 100)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func sampleQuery() domain.ListQuery {
	return domain.ListQuery{
		Destination: domain.Destination{RegionID: "6054439", Lat: 38.72, Lon: -9.13},
		CheckIn:     domain.Day{Day: 14, Month: 9, Year: 2026},
		CheckOut:    domain.Day{Day: 19, Month: 9, Year: 2026},
		Rooms:       []domain.RoomSpec{{Adults: 2, ChildAges: []int{4}}},
		Sort:        domain.SortPriceAscending,
		Offset:      0,
		Size:        200,
	}
}

func TestListProperties_ParsesListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/properties/v2/list" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-RapidAPI-Key") != "test-key" || r.Header.Get("X-RapidAPI-Host") != "test-host" {
			t.Errorf("missing auth headers")
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["sort"] != "PRICE_LOW_TO_HIGH" || req["currency"] != "USD" {
			t.Errorf("request body: %v", req)
		}
		w.Write([]byte(`{"data":{"propertySearch":{"properties":[
			{"id":"100","name":"Hotel Alfama","price":{"lead":{"amount":72.5}},
			 "destinationInfo":{"distanceFromDestination":{"value":1.2}}},
			{"id":"101","name":"Hotel Baixa","price":{"lead":{"amount":95}},
			 "destinationInfo":{"distanceFromDestination":{"value":0.4}}}
		]}}}`))
	}))
	defer srv.Close()

	got, err := newClient(t, srv).ListProperties(context.Background(), sampleQuery())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listings: %d", len(got))
	}
	if got[0].ID != "100" || got[0].Name != "Hotel Alfama" || got[0].Price != 72.5 || got[0].Distance != 1.2 {
		t.Fatalf("listing 0: %+v", got[0])
	}
}

func TestListProperties_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).ListProperties(context.Background(), sampleQuery())
	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestListProperties_ErrorFlaggedPayloadIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"quota exceeded"}],"data":null}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv).ListProperties(context.Background(), sampleQuery())
	if !domain.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestListProperties_UnauthorizedFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).ListProperties(context.Background(), sampleQuery())
	if !errors.Is(err, hotelapi.ErrUnauthorized) {
		t.Fatalf("err: %v", err)
	}
	if domain.IsTransient(err) {
		t.Fatal("auth failure must not be retried")
	}
}

func TestGetPropertyDetail_ParsesAddressAndPhotos(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/properties/v2/detail" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"propertyInfo":{
			"summary":{"location":{"address":{"addressLine":"Rua Augusta 1, Lisbon"}}},
			"propertyGallery":{"images":[
				{"image":{"url":"https://img/1.jpg"}},
				{"image":{"url":""}},
				{"image":{"url":"https://img/2.jpg"}}
			]}
		}}}`))
	}))
	defer srv.Close()

	d, err := newClient(t, srv).GetPropertyDetail(context.Background(), "100")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.AddressLine != "Rua Augusta 1, Lisbon" {
		t.Fatalf("address: %q", d.AddressLine)
	}
	// blank gallery entries are skipped
	if len(d.PhotoURLs) != 2 || d.PhotoURLs[1] != "https://img/2.jpg" {
		t.Fatalf("photos: %v", d.PhotoURLs)
	}
}

func TestGetPropertyDetail_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(t, srv).GetPropertyDetail(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err: %v", err)
	}
	if domain.IsTransient(err) {
		t.Fatal("not-found must not be retried")
	}
}

func TestSearchCandidates_KeepsOnlyCities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/locations/v3/search" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Lisbon" {
			t.Errorf("q: %q", got)
		}
		w.Write([]byte(`{"sr":[
			{"type":"CITY","gaiaId":"6054439","regionNames":{"fullName":"Lisbon, Portugal"},
			 "coordinates":{"lat":"38.72","long":"-9.13"}},
			{"type":"AIRPORT","gaiaId":"553248","regionNames":{"fullName":"Lisbon Airport"},
			 "coordinates":{"lat":"38.77","long":"-9.13"}},
			{"type":"CITY","gaiaId":"8843","regionNames":{"fullName":"Lisbon, Ohio"},
			 "coordinates":{"lat":"not-a-number","long":"-80.76"}}
		]}`))
	}))
	defer srv.Close()

	got, err := newClient(t, srv).SearchCandidates(context.Background(), "Lisbon")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates: %+v", got)
	}
	c := got[0]
	if c.Name != "Lisbon, Portugal" || c.RegionID != "6054439" || c.Lat != 38.72 || c.Lon != -9.13 {
		t.Fatalf("candidate: %+v", c)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := hotelapi.New("https://example.com", "", "host", "en_US", 5); err == nil {
		t.Fatal("empty key accepted")
	}
}
