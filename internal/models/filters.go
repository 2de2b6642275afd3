package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Filters is the canonical search filter contract of the Mini App. Zero
// values (empty string, empty slice) mean "no constraint" for that dimension.
//
// Bedrooms, Bathrooms and GarageSpaces carry either an exact count ("3") or a
// minimum with a "+" suffix ("3+", meaning 3 or more). GarageSpaces is matched
// against the derived total parking capacity, not a stored field.
type Filters struct {
	ListingType  string    `bson:"listingType" json:"listingType"`
	PriceRange   []float64 `bson:"priceRange" json:"priceRange"`
	PropertyType []string  `bson:"propertyType" json:"propertyType"`
	Locality     []string  `bson:"locality" json:"locality"`
	Bedrooms     string    `bson:"bedrooms" json:"bedrooms"`
	Bathrooms    string    `bson:"bathrooms" json:"bathrooms"`
	GarageSpaces string    `bson:"garageSpaces" json:"garageSpaces"`
	Size         []float64 `bson:"size" json:"size"`
	Amenities    []string  `bson:"amenities" json:"amenities"`
}

// Validate checks the structural shape of the filters. Range fields must be
// either absent or an exact [min, max] pair, and count fields must parse.
func (f *Filters) Validate() error {
	if f.ListingType != "" && f.ListingType != ListingTypeAll &&
		f.ListingType != ListingTypeBuy && f.ListingType != ListingTypeRent {
		return fmt.Errorf("invalid listingType %q", f.ListingType)
	}
	if len(f.PriceRange) != 0 && len(f.PriceRange) != 2 {
		return fmt.Errorf("priceRange must be a [min, max] pair, got %d elements", len(f.PriceRange))
	}
	if len(f.Size) != 0 && len(f.Size) != 2 {
		return fmt.Errorf("size must be a [min, max] pair, got %d elements", len(f.Size))
	}
	for _, field := range []struct {
		name, value string
	}{
		{"bedrooms", f.Bedrooms},
		{"bathrooms", f.Bathrooms},
		{"garageSpaces", f.GarageSpaces},
	} {
		if _, _, err := ParseCountFilter(field.value); err != nil {
			return fmt.Errorf("invalid %s: %w", field.name, err)
		}
	}
	return nil
}

// ParseCountFilter parses a count constraint of the form "", "N" or "N+".
// It returns the parsed number and whether the constraint is a minimum
// ("N or more") rather than an exact match. An empty string parses to
// (0, false) and means "no constraint".
func ParseCountFilter(s string) (n int, atLeast bool, err error) {
	if s == "" {
		return 0, false, nil
	}
	if strings.HasSuffix(s, "+") {
		atLeast = true
		s = strings.TrimSuffix(s, "+")
	}
	// Atoi tolerates a leading sign; counts are bare digits only
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false, fmt.Errorf("not a count: %q", s)
	}
	n, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("not a count: %q", s)
	}
	return n, atLeast, nil
}
