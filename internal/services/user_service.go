package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/models"
)

const (
	favoritesCollection    = "favorites"
	viewingsCollection     = "viewings"
	savedSearchsCollection = "saved_searches"
)

// IUserService defines the interface for user registry operations.
type IUserService interface {
	Register(ctx context.Context, id int64, name, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// userService implements IUserService.
type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: db, cfg: cfg}
}

// Register upserts a user profile keyed by the Telegram user id. Repeated
// registrations refresh the name and username so the owner join always shows
// current identities.
func (s *userService) Register(ctx context.Context, id int64, name, username string) (*models.User, error) {
	collection := s.db.Collection(usersCollection)
	now := time.Now().Unix()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":      name,
			"username":  username,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"id":        id,
			"createdAt": now,
		},
	}

	var user models.User
	err := collection.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to register user %d: %w", id, err)
	}
	return &user, nil
}

// FindUserByID finds a user by their Telegram id.
func (s *userService) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user %d: %w", id, err)
	}
	return &user, nil
}

// DeleteUser removes the user's profile and everything attached to it:
// their listings, favorites, saved searches and viewing requests in either
// direction.
func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.Collection(usersCollection).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	if _, err = s.db.Collection(propertiesCollection).DeleteMany(ctx, bson.M{"owner": id}); err != nil {
		return fmt.Errorf("failed to delete listings of user %d: %w", id, err)
	}
	if _, err = s.db.Collection(favoritesCollection).DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return fmt.Errorf("failed to delete favorites of user %d: %w", id, err)
	}
	if _, err = s.db.Collection(savedSearchsCollection).DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return fmt.Errorf("failed to delete saved searches of user %d: %w", id, err)
	}
	if _, err = s.db.Collection(viewingsCollection).DeleteMany(ctx, bson.M{
		"$or": []bson.M{{"sourceUser": id}, {"targetUser": id}},
	}); err != nil {
		return fmt.Errorf("failed to delete viewings of user %d: %w", id, err)
	}

	return nil
}
