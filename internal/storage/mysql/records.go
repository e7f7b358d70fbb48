package mysql

import (
	"encoding/json"
	"fmt"
	"time"

	"hotel_scout/internal/domain"
)

// SchemaVersion tags the persisted search-history document. Bump it together
// with a migration whenever a field changes meaning.
const SchemaVersion = 1

type dayRec struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

type destinationRec struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RegionID string  `json:"region_id"`
}

type roomRec struct {
	Adults    int   `json:"adults"`
	ChildAges []int `json:"child_ages,omitempty"`
}

type rangeRec struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type hotelRec struct {
	Name          string   `json:"name"`
	ID            string   `json:"id"`
	PricePerNight float64  `json:"price_per_night"`
	Distance      float64  `json:"distance"`
	Address       string   `json:"address,omitempty"`
	PhotoURLs     []string `json:"photo_urls,omitempty"`
}

type searchRec struct {
	ID             string         `json:"id"`
	Destination    destinationRec `json:"destination"`
	CheckIn        dayRec         `json:"check_in"`
	CheckOut       dayRec         `json:"check_out"`
	Rooms          []roomRec      `json:"rooms"`
	RequestedCount int            `json:"requested_count"`
	PhotoCount     int            `json:"photo_count"`
	Mode           string         `json:"mode,omitempty"`
	PriceRange     *rangeRec      `json:"price_range,omitempty"`
	DistanceRange  *rangeRec      `json:"distance_range,omitempty"`
	Results        []hotelRec     `json:"results,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

func encodeSearches(searches []domain.Search) ([]byte, error) {
	recs := make([]searchRec, 0, len(searches))
	for _, s := range searches {
		recs = append(recs, toSearchRec(s))
	}
	return json.Marshal(recs)
}

func decodeSearches(raw []byte, version int) ([]domain.Search, error) {
	if version != SchemaVersion {
		return nil, fmt.Errorf("unsupported searches schema version %d", version)
	}
	var recs []searchRec
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, err
	}
	searches := make([]domain.Search, 0, len(recs))
	for _, r := range recs {
		searches = append(searches, fromSearchRec(r))
	}
	return searches, nil
}

func toSearchRec(s domain.Search) searchRec {
	r := searchRec{
		ID: s.ID,
		Destination: destinationRec{
			Name: s.Destination.Name, Lat: s.Destination.Lat,
			Lon: s.Destination.Lon, RegionID: s.Destination.RegionID,
		},
		CheckIn:        dayRec(s.CheckIn),
		CheckOut:       dayRec(s.CheckOut),
		RequestedCount: s.RequestedCount,
		PhotoCount:     s.PhotoCount,
		Mode:           string(s.Mode),
		CreatedAt:      s.CreatedAt,
	}
	for _, room := range s.Rooms {
		r.Rooms = append(r.Rooms, roomRec{Adults: room.Adults, ChildAges: append([]int(nil), room.ChildAges...)})
	}
	if s.PriceRange != nil {
		r.PriceRange = &rangeRec{Min: s.PriceRange.Min, Max: s.PriceRange.Max}
	}
	if s.DistanceRange != nil {
		r.DistanceRange = &rangeRec{Min: s.DistanceRange.Min, Max: s.DistanceRange.Max}
	}
	for _, h := range s.Results {
		r.Results = append(r.Results, hotelRec{
			Name: h.Name, ID: h.ID, PricePerNight: h.PricePerNight,
			Distance: h.Distance, Address: h.Address,
			PhotoURLs: append([]string(nil), h.PhotoURLs...),
		})
	}
	return r
}

func fromSearchRec(r searchRec) domain.Search {
	s := domain.Search{
		ID: r.ID,
		Destination: domain.Destination{
			Name: r.Destination.Name, Lat: r.Destination.Lat,
			Lon: r.Destination.Lon, RegionID: r.Destination.RegionID,
		},
		CheckIn:        domain.Day(r.CheckIn),
		CheckOut:       domain.Day(r.CheckOut),
		RequestedCount: r.RequestedCount,
		PhotoCount:     r.PhotoCount,
		Mode:           domain.Mode(r.Mode),
		CreatedAt:      r.CreatedAt,
	}
	for _, room := range r.Rooms {
		s.Rooms = append(s.Rooms, domain.RoomSpec{Adults: room.Adults, ChildAges: append([]int(nil), room.ChildAges...)})
	}
	if r.PriceRange != nil {
		s.PriceRange = &domain.Range{Min: r.PriceRange.Min, Max: r.PriceRange.Max}
	}
	if r.DistanceRange != nil {
		s.DistanceRange = &domain.Range{Min: r.DistanceRange.Min, Max: r.DistanceRange.Max}
	}
	for _, h := range r.Results {
		s.Results = append(s.Results, domain.Hotel{
			Name: h.Name, ID: h.ID, PricePerNight: h.PricePerNight,
			Distance: h.Distance, Address: h.Address,
			PhotoURLs: append([]string(nil), h.PhotoURLs...),
		})
	}
	return s
}
