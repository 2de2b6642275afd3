package models

// SearchAlert is a saved search that is matched against newly created
// properties. LastPropertyIndex tracks the highest property index already
// seen, so a listing is never announced twice.
type SearchAlert struct {
	ID                string  `bson:"id" json:"id"`
	Name              string  `bson:"name" json:"name"`
	UserID            int64   `bson:"userId" json:"userId"`
	Filters           Filters `bson:"filters" json:"filters"`
	LastPropertyIndex int64   `bson:"lastPropertyIndex" json:"lastPropertyIndex"`
	Active            bool    `bson:"active" json:"active"`
	CreatedAt         int64   `bson:"createdAt" json:"createdAt"`
}
