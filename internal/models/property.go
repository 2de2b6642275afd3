package models

// Listing type values.
const (
	ListingTypeBuy  = "buy"
	ListingTypeRent = "rent"
	ListingTypeAll  = "all"
)

// Car space type values. The producing workflow allows at most one entry of
// each type per property; the query side only ever sums capacities.
const (
	CarSpaceTypeGarage   = "garage"
	CarSpaceTypeCarspace = "carspace"
)

// CarSpace is a parking allocation attached to a property.
type CarSpace struct {
	Type     string `bson:"type" json:"type"`
	Capacity int    `bson:"capacity" json:"capacity"`
}

// TimeSlot is a bookable window within a day's availability schedule.
type TimeSlot struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// DayAvailability lists the viewing time slots offered on a given weekday.
type DayAvailability struct {
	Day       string     `bson:"day" json:"day"`
	TimeSlots []TimeSlot `bson:"timeSlots" json:"timeSlots"`
}

// Property is a listing document as stored in the properties collection.
// BSON field names match the Mini App's original document shape, so an
// existing database keeps working.
type Property struct {
	ID                   string            `bson:"id" json:"id"`
	Index                int64             `bson:"index" json:"-"`
	Active               bool              `bson:"active" json:"active"`
	ListingType          string            `bson:"listingType" json:"listingType"`
	PropertyType         string            `bson:"propertyType" json:"propertyType"`
	Title                string            `bson:"title" json:"title"`
	Price                float64           `bson:"price" json:"price"`
	Bedrooms             int               `bson:"bedrooms" json:"bedrooms"`
	Bathrooms            int               `bson:"bathrooms" json:"bathrooms"`
	Size                 float64           `bson:"size" json:"size"`
	Location             string            `bson:"location" json:"location"`
	Locality             string            `bson:"locality" json:"locality"`
	Position             []float64         `bson:"position" json:"position"` // [lat, lng]
	Description          string            `bson:"description" json:"description"`
	Amenities            []string          `bson:"amenities" json:"amenities"`
	AvailabilitySchedule []DayAvailability `bson:"availabilitySchedule" json:"availabilitySchedule"`
	CarSpaces            []CarSpace        `bson:"carSpaces" json:"carSpaces"`
	Images               []string          `bson:"images" json:"images"` // S3 keys
	Owner                int64             `bson:"owner" json:"owner"`   // Telegram user id
	CreatedAt            int64             `bson:"createdAt" json:"createdAt"`     // unix seconds
	ActiveUntil          int64             `bson:"activeUntil" json:"activeUntil"` // unix seconds
}

// TotalCarSpaces returns the combined parking capacity across all car space
// entries. The search pipeline derives the same value server-side so it can
// be filtered on.
func (p *Property) TotalCarSpaces() int {
	total := 0
	for _, cs := range p.CarSpaces {
		total += cs.Capacity
	}
	return total
}

// PropertyOwner is the owner identity resolved from the users collection and
// attached to search results in place of the raw owner id.
type PropertyOwner struct {
	ID       int64  `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Username string `bson:"username" json:"username"`
}

// PropertySummary is a Property enriched for search output: the raw owner id
// is replaced by the resolved owner identity and the derived total parking
// capacity is attached.
type PropertySummary struct {
	ID                   string            `bson:"id" json:"id"`
	Active               bool              `bson:"active" json:"active"`
	ListingType          string            `bson:"listingType" json:"listingType"`
	PropertyType         string            `bson:"propertyType" json:"propertyType"`
	Title                string            `bson:"title" json:"title"`
	Price                float64           `bson:"price" json:"price"`
	Bedrooms             int               `bson:"bedrooms" json:"bedrooms"`
	Bathrooms            int               `bson:"bathrooms" json:"bathrooms"`
	Size                 float64           `bson:"size" json:"size"`
	Location             string            `bson:"location" json:"location"`
	Locality             string            `bson:"locality" json:"locality"`
	Position             []float64         `bson:"position" json:"position"`
	Description          string            `bson:"description" json:"description"`
	Amenities            []string          `bson:"amenities" json:"amenities"`
	AvailabilitySchedule []DayAvailability `bson:"availabilitySchedule" json:"availabilitySchedule"`
	CarSpaces            []CarSpace        `bson:"carSpaces" json:"carSpaces"`
	Images               []string          `bson:"images" json:"images"`
	CreatedAt            int64             `bson:"createdAt" json:"createdAt"`
	ActiveUntil          int64             `bson:"activeUntil" json:"activeUntil"`
	TotalCarSpaces       int               `bson:"totalCarSpaces" json:"totalCarSpaces"`
	Owner                PropertyOwner     `bson:"owner" json:"owner"`
}

// SearchResult is one page of enriched listings plus pagination metadata.
type SearchResult struct {
	Properties  []PropertySummary `json:"properties"`
	Count       int               `json:"count"`
	Total       int64             `json:"total"`
	TotalPages  int64             `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
	PerPage     int               `json:"perPage"`
}
