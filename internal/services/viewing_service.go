package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/db"
	"github.com/jacqueschris/ownerlist/internal/models"
)

var (
	// ErrInvalidViewingStatus marks a status value outside the known set.
	ErrInvalidViewingStatus = errors.New("invalid viewing status")
	// ErrNotViewingParticipant is returned when a user tries to act on a
	// viewing they are not part of.
	ErrNotViewingParticipant = errors.New("user is not a participant of this viewing")
)

// IViewingService defines the interface for viewing request operations.
type IViewingService interface {
	CreateViewing(ctx context.Context, sourceUser int64, propertyID string, date int64) (*models.Viewing, error)
	ListViewings(ctx context.Context, userID int64) ([]models.ViewingDetail, error)
	UpdateViewingStatus(ctx context.Context, id string, userID int64, status string) (*models.Viewing, error)
	DeleteViewing(ctx context.Context, id string, userID int64) error
}

// viewingService implements IViewingService.
type viewingService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewViewingService creates a new ViewingService.
func NewViewingService(db *mongo.Database, cfg *config.Config) IViewingService {
	return &viewingService{db: db, cfg: cfg}
}

// CreateViewing files a pending viewing request against a property. The
// target user is resolved from the listing, so requests always point at the
// current owner. Owners cannot request viewings of their own listings.
func (s *viewingService) CreateViewing(ctx context.Context, sourceUser int64, propertyID string, date int64) (*models.Viewing, error) {
	var property models.Property
	err := s.db.Collection(propertiesCollection).
		FindOne(ctx, bson.M{"id": propertyID, "active": true}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error resolving property %s for viewing: %w", propertyID, err)
	}
	if property.Owner == sourceUser {
		return nil, fmt.Errorf("cannot request a viewing of your own listing")
	}

	viewing := &models.Viewing{
		SourceUser: sourceUser,
		TargetUser: property.Owner,
		Property:   propertyID,
		Date:       date,
		Status:     models.ViewingStatusPending,
	}

	collection := s.db.Collection(viewingsCollection)
	operation := func() error {
		viewing.ID = uuid.NewString()
		_, insertErr := collection.InsertOne(ctx, viewing)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert viewing after multiple retries: %w", err)
	}
	return viewing, nil
}

// ListViewings returns every viewing the user is part of, as requester or as
// owner, with both participants and the property joined in.
func (s *viewingService) ListViewings(ctx context.Context, userID int64) ([]models.ViewingDetail, error) {
	collection := s.db.Collection(viewingsCollection)

	pipeline := []bson.M{
		{"$match": bson.M{
			"$or": []bson.M{{"sourceUser": userID}, {"targetUser": userID}},
		}},
		{"$lookup": bson.M{
			"from":         usersCollection,
			"localField":   "sourceUser",
			"foreignField": "id",
			"as":           "sourceUserDetails",
		}},
		{"$lookup": bson.M{
			"from":         usersCollection,
			"localField":   "targetUser",
			"foreignField": "id",
			"as":           "targetUserDetails",
		}},
		{"$lookup": bson.M{
			"from":         propertiesCollection,
			"localField":   "property",
			"foreignField": "id",
			"as":           "propertyDetails",
		}},
		{"$sort": bson.M{"date": 1}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewings of user %d: %w", userID, err)
	}
	defer cursor.Close(ctx)

	viewings := []models.ViewingDetail{}
	if err = cursor.All(ctx, &viewings); err != nil {
		return nil, fmt.Errorf("failed to decode viewings of user %d: %w", userID, err)
	}
	return viewings, nil
}

// UpdateViewingStatus moves a viewing to a new status. Only the property
// owner may approve or reject; the requester may not change the status.
func (s *viewingService) UpdateViewingStatus(ctx context.Context, id string, userID int64, status string) (*models.Viewing, error) {
	if !models.ValidViewingStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidViewingStatus, status)
	}

	collection := s.db.Collection(viewingsCollection)

	var viewing models.Viewing
	if err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&viewing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding viewing %s: %w", id, err)
	}
	if viewing.TargetUser != userID {
		return nil, ErrNotViewingParticipant
	}

	_, err := collection.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return nil, fmt.Errorf("failed to update viewing %s: %w", id, err)
	}
	viewing.Status = status
	return &viewing, nil
}

// DeleteViewing removes a viewing. Either participant may delete it.
func (s *viewingService) DeleteViewing(ctx context.Context, id string, userID int64) error {
	collection := s.db.Collection(viewingsCollection)

	result, err := collection.DeleteOne(ctx, bson.M{
		"id": id,
		"$or": []bson.M{
			{"sourceUser": userID},
			{"targetUser": userID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete viewing %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
