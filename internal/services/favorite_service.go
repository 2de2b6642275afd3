package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/models"
)

// IFavoriteService defines the interface for favorite operations.
type IFavoriteService interface {
	AddFavorite(ctx context.Context, userID int64, propertyID string) error
	RemoveFavorite(ctx context.Context, userID int64, propertyID string) error
	ListFavoriteIDs(ctx context.Context, userID int64) ([]string, error)
	ListFavoriteProperties(ctx context.Context, userID int64) ([]models.PropertySummary, error)
}

// favoriteService implements IFavoriteService.
type favoriteService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(db *mongo.Database, cfg *config.Config) IFavoriteService {
	return &favoriteService{db: db, cfg: cfg}
}

// AddFavorite saves a property for the user. Re-favoriting an already saved
// property is a no-op, not an error.
func (s *favoriteService) AddFavorite(ctx context.Context, userID int64, propertyID string) error {
	collection := s.db.Collection(favoritesCollection)

	filter := bson.M{"userId": userID, "propertyId": propertyID}
	update := bson.M{"$setOnInsert": models.Favorite{
		UserID:     userID,
		PropertyID: propertyID,
		CreatedAt:  time.Now().Unix(),
	}}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add favorite for user %d: %w", userID, err)
	}
	return nil
}

// RemoveFavorite unsaves a property for the user.
func (s *favoriteService) RemoveFavorite(ctx context.Context, userID int64, propertyID string) error {
	collection := s.db.Collection(favoritesCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"userId": userID, "propertyId": propertyID})
	if err != nil {
		return fmt.Errorf("failed to remove favorite for user %d: %w", userID, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListFavoriteIDs returns the ids of every property the user has saved,
// including ones that have since been deactivated or deleted. The client
// uses this set to mark search results.
func (s *favoriteService) ListFavoriteIDs(ctx context.Context, userID int64) ([]string, error) {
	collection := s.db.Collection(favoritesCollection)

	cursor, err := collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites of user %d: %w", userID, err)
	}
	defer cursor.Close(ctx)

	favorites := []models.Favorite{}
	if err = cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites of user %d: %w", userID, err)
	}

	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.PropertyID)
	}
	return ids, nil
}

// ListFavoriteProperties resolves the user's saved properties into owner
// enriched summaries. Deleted listings silently drop out of the join and
// inactive ones are excluded, same as search.
func (s *favoriteService) ListFavoriteProperties(ctx context.Context, userID int64) ([]models.PropertySummary, error) {
	collection := s.db.Collection(favoritesCollection)

	pipeline := []bson.M{
		{"$match": bson.M{"userId": userID}},
		{"$lookup": bson.M{
			"from":         propertiesCollection,
			"localField":   "propertyId",
			"foreignField": "id",
			"as":           "property",
		}},
		{"$unwind": "$property"},
		{"$replaceRoot": bson.M{"newRoot": "$property"}},
		totalCarSpacesStage(),
		{"$match": bson.M{"active": true}},
		{"$sort": bson.M{"createdAt": -1}},
	}
	pipeline = append(pipeline, ownerLookupStages()...)
	pipeline = append(pipeline, summaryProjection())

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve favorites of user %d: %w", userID, err)
	}
	defer cursor.Close(ctx)

	properties := []models.PropertySummary{}
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode favorite properties of user %d: %w", userID, err)
	}
	return properties, nil
}
