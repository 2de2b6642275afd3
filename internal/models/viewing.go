package models

// Viewing request status values.
const (
	ViewingStatusPending  = "pending"
	ViewingStatusApproved = "approved"
	ViewingStatusRejected = "rejected"
)

// ValidViewingStatus reports whether s is a known viewing status.
func ValidViewingStatus(s string) bool {
	return s == ViewingStatusPending || s == ViewingStatusApproved || s == ViewingStatusRejected
}

// Viewing is a viewing request between two users for a property.
type Viewing struct {
	ID         string `bson:"id" json:"id"`
	SourceUser int64  `bson:"sourceUser" json:"sourceUser"` // requester
	TargetUser int64  `bson:"targetUser" json:"targetUser"` // property owner
	Property   string `bson:"property" json:"property"`     // property id
	Date       int64  `bson:"date" json:"date"`             // unix seconds
	Status     string `bson:"status" json:"status"`
}

// ViewingDetail is a Viewing with both participants and the property joined
// in for display. Joined fields are empty slices when the referenced record
// no longer exists.
type ViewingDetail struct {
	Viewing           `bson:",inline"`
	SourceUserDetails []User     `bson:"sourceUserDetails" json:"sourceUserDetails"`
	TargetUserDetails []User     `bson:"targetUserDetails" json:"targetUserDetails"`
	PropertyDetails   []Property `bson:"propertyDetails" json:"propertyDetails"`
}
