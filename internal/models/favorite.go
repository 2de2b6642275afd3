package models

// Favorite marks a property as saved by a user.
type Favorite struct {
	UserID     int64  `bson:"userId" json:"userId"`
	PropertyID string `bson:"propertyId" json:"propertyId"`
	CreatedAt  int64  `bson:"createdAt" json:"createdAt"`
}
