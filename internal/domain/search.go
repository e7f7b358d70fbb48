package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Mode selects the retrieval strategy for a search.
type Mode string

const (
	ModeLow      Mode = "LOW"
	ModeHigh     Mode = "HIGH"
	ModeBestDeal Mode = "BEST_DEAL"
)

// MaxOccupants caps the total of adults and children across all rooms.
const MaxOccupants = 20

// Day is a calendar day as collected from the user; no time zone attached.
type Day struct {
	Day   int
	Month int
	Year  int
}

func (d Day) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) Before(o Day) bool { return d.Time().Before(o.Time()) }

func (d Day) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// Destination is a confirmed city choice from the directory.
type Destination struct {
	Name     string
	Lat      float64
	Lon      float64
	RegionID string
}

// RoomSpec describes one room's occupancy. Adults is at least 1; ChildAges
// carries one entry per child.
type RoomSpec struct {
	Adults    int
	ChildAges []int
}

// Range bounds a price or distance filter. Filtering is exclusive on both ends.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies strictly inside the range.
func (r Range) Contains(v float64) bool { return r.Min < v && v < r.Max }

// Search accumulates one fully-specified hotel query and its results.
// It is created once a destination is confirmed and mutated field by field as
// the conversation progresses; Results stays empty until a strategy ran.
type Search struct {
	ID             string
	Destination    Destination
	CheckIn        Day
	CheckOut       Day
	Rooms          []RoomSpec
	RequestedCount int
	PhotoCount     int
	Mode           Mode
	PriceRange     *Range
	DistanceRange  *Range
	Results        []Hotel
	CreatedAt      time.Time
}

// NewSearchID derives a search identifier from the creation instant.
func NewSearchID(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

// NewSearch starts an empty search for a confirmed destination.
func NewSearch(dest Destination, now time.Time) Search {
	return Search{
		ID:          NewSearchID(now),
		Destination: dest,
		CreatedAt:   now.UTC(),
	}
}

// Replay copies destination, dates, occupancy and result/photo counts into a
// fresh search with a new id and timestamp. Mode, ranges and results are not
// carried over.
func (s Search) Replay(now time.Time) Search {
	rooms := make([]RoomSpec, len(s.Rooms))
	for i, r := range s.Rooms {
		rooms[i] = RoomSpec{Adults: r.Adults, ChildAges: append([]int(nil), r.ChildAges...)}
	}
	return Search{
		ID:             NewSearchID(now),
		Destination:    s.Destination,
		CheckIn:        s.CheckIn,
		CheckOut:       s.CheckOut,
		Rooms:          rooms,
		RequestedCount: s.RequestedCount,
		PhotoCount:     s.PhotoCount,
		CreatedAt:      now.UTC(),
	}
}

// Nights is the length of the stay in whole days.
func (s Search) Nights() int {
	return int(s.CheckOut.Time().Sub(s.CheckIn.Time()).Hours() / 24)
}

// TotalOccupants sums adults and children across all rooms.
func TotalOccupants(rooms []RoomSpec) int {
	total := 0
	for _, r := range rooms {
		total += r.Adults + len(r.ChildAges)
	}
	return total
}

// ValidateStay checks that check-out falls strictly after check-in.
func ValidateStay(checkIn, checkOut Day) error {
	if !checkIn.Before(checkOut) {
		return fmt.Errorf("check-out %s must be after check-in %s", checkOut, checkIn)
	}
	return nil
}

// ValidateOccupancy enforces per-room and total occupant limits.
func ValidateOccupancy(rooms []RoomSpec) error {
	for i, r := range rooms {
		if r.Adults < 1 {
			return fmt.Errorf("room %d needs at least one adult", i+1)
		}
	}
	if n := TotalOccupants(rooms); n > MaxOccupants {
		return fmt.Errorf("%d occupants exceed the limit of %d", n, MaxOccupants)
	}
	return nil
}

// ValidateRange rejects bounds where max falls below min.
func ValidateRange(r Range) error {
	if r.Max < r.Min {
		return fmt.Errorf("max %.2f cannot be less than min %.2f", r.Max, r.Min)
	}
	return nil
}
