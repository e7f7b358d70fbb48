package domain

import "math"

// Hotel is one search result. Name, ID, price and distance come from the
// listing; Address and PhotoURLs are filled by the detail enrichment step.
type Hotel struct {
	Name          string
	ID            string
	PricePerNight float64
	Distance      float64
	Address       string
	PhotoURLs     []string
}

// Round2 rounds a price or distance to two decimals for display. Range
// comparisons always use the unrounded value.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
