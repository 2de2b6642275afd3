package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/db"
	"github.com/jacqueschris/ownerlist/internal/models"
)

// IAlertService defines the interface for saved-search alert operations.
type IAlertService interface {
	CreateAlert(ctx context.Context, userID int64, name string, filters models.Filters) (*models.SearchAlert, error)
	ListAlerts(ctx context.Context, userID int64) ([]models.SearchAlert, error)
	ToggleAlert(ctx context.Context, id string, userID int64, active bool) error
	DeleteAlert(ctx context.Context, id string, userID int64) error
	MatchAlertsForProperty(ctx context.Context, propertyService IPropertyService, property *models.Property) ([]models.SearchAlert, error)
	AdvanceAlertIndex(ctx context.Context, alertID string, index int64) error
}

// alertService implements IAlertService.
type alertService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewAlertService creates a new AlertService.
func NewAlertService(db *mongo.Database, cfg *config.Config) IAlertService {
	return &alertService{db: db, cfg: cfg}
}

// CreateAlert saves a named search for the user. The alert starts at the
// current property index so only listings created after the alert existed
// can ever match it.
func (s *alertService) CreateAlert(ctx context.Context, userID int64, name string, filters models.Filters) (*models.SearchAlert, error) {
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}

	var counter struct {
		Index int64 `bson:"index"`
	}
	err := s.db.Collection(countersCollection).
		FindOne(ctx, bson.M{"_id": "property_index"}).Decode(&counter)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to read property index counter: %w", err)
	}

	alert := &models.SearchAlert{
		Name:              name,
		UserID:            userID,
		Filters:           filters,
		LastPropertyIndex: counter.Index,
		Active:            true,
		CreatedAt:         time.Now().Unix(),
	}

	collection := s.db.Collection(savedSearchsCollection)
	operation := func() error {
		alert.ID = uuid.NewString()
		_, insertErr := collection.InsertOne(ctx, alert)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert search alert for user %d: %w", userID, err)
	}
	return alert, nil
}

// ListAlerts returns all of the user's saved searches, active or not.
func (s *alertService) ListAlerts(ctx context.Context, userID int64) ([]models.SearchAlert, error) {
	cursor, err := s.db.Collection(savedSearchsCollection).Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list search alerts of user %d: %w", userID, err)
	}
	defer cursor.Close(ctx)

	alerts := []models.SearchAlert{}
	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode search alerts of user %d: %w", userID, err)
	}
	return alerts, nil
}

// ToggleAlert enables or disables matching for a saved search.
func (s *alertService) ToggleAlert(ctx context.Context, id string, userID int64, active bool) error {
	result, err := s.db.Collection(savedSearchsCollection).UpdateOne(ctx,
		bson.M{"id": id, "userId": userID},
		bson.M{"$set": bson.M{"active": active}},
	)
	if err != nil {
		return fmt.Errorf("failed to toggle search alert %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteAlert removes a saved search owned by the user.
func (s *alertService) DeleteAlert(ctx context.Context, id string, userID int64) error {
	result, err := s.db.Collection(savedSearchsCollection).DeleteOne(ctx, bson.M{"id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete search alert %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MatchAlertsForProperty finds the active alerts whose filters match the
// given property and that have not announced it yet. The owner's own alerts
// never match their own listings.
func (s *alertService) MatchAlertsForProperty(ctx context.Context, propertyService IPropertyService, property *models.Property) ([]models.SearchAlert, error) {
	cursor, err := s.db.Collection(savedSearchsCollection).Find(ctx, bson.M{
		"active":            true,
		"userId":            bson.M{"$ne": property.Owner},
		"lastPropertyIndex": bson.M{"$lt": property.Index},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate alerts for property %s: %w", property.ID, err)
	}
	defer cursor.Close(ctx)

	candidates := []models.SearchAlert{}
	if err = cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidate alerts: %w", err)
	}

	matched := []models.SearchAlert{}
	for _, alert := range candidates {
		filters := alert.Filters
		ok, err := propertyService.MatchesFilters(ctx, &filters, property.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to match alert %s against property %s: %w", alert.ID, property.ID, err)
		}
		if ok {
			matched = append(matched, alert)
		}
	}
	return matched, nil
}

// AdvanceAlertIndex records that the alert has announced every listing up to
// and including the given index. The index only ever moves forward.
func (s *alertService) AdvanceAlertIndex(ctx context.Context, alertID string, index int64) error {
	_, err := s.db.Collection(savedSearchsCollection).UpdateOne(ctx,
		bson.M{"id": alertID, "lastPropertyIndex": bson.M{"$lt": index}},
		bson.M{"$set": bson.M{"lastPropertyIndex": index}},
	)
	if err != nil {
		return fmt.Errorf("failed to advance index of alert %s: %w", alertID, err)
	}
	return nil
}
