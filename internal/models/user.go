package models

// User is a profile in the users collection, keyed by the numeric Telegram
// user id. It doubles as the owner directory joined into search results.
type User struct {
	ID        int64  `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Username  string `bson:"username" json:"username"`
	CreatedAt int64  `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64  `bson:"updatedAt" json:"updatedAt"`
}
