package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/db"
	"github.com/jacqueschris/ownerlist/internal/models"
)

// ErrInvalidFilters marks a structurally invalid search request. It is
// detected before any store call and maps to a client error at the API
// boundary.
var ErrInvalidFilters = errors.New("invalid search filters")

const (
	propertiesCollection = "properties"
	usersCollection      = "users"
	countersCollection   = "counters"

	defaultSearchLimit = 100
	maxSearchLimit     = 100
)

// IPropertyService defines the interface for property-related operations.
type IPropertyService interface {
	SearchProperties(ctx context.Context, filters *models.Filters, page, limit int) (*models.SearchResult, error)
	FindPropertyByID(ctx context.Context, id string) (*models.Property, error)
	CreateProperty(ctx context.Context, ownerID int64, p *models.Property) (*models.Property, error)
	UpdateProperty(ctx context.Context, id string, ownerID int64, updates map[string]interface{}) (*models.Property, error)
	DeleteProperty(ctx context.Context, id string, ownerID int64) (*models.Property, error)
	SetVisibility(ctx context.Context, id string, ownerID int64, active bool) error
	ListByOwner(ctx context.Context, ownerID int64) ([]models.PropertySummary, error)
	AddImageToProperty(ctx context.Context, id string, imageKey string) error
	MatchesFilters(ctx context.Context, filters *models.Filters, propertyID string) (bool, error)
	DeactivateExpired(ctx context.Context, now int64) (int64, error)
	CurrentPropertyIndex(ctx context.Context) (int64, error)
}

// propertyService implements IPropertyService.
type propertyService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(db *mongo.Database, cfg *config.Config) IPropertyService {
	return &propertyService{db: db, cfg: cfg}
}

// SearchProperties translates the filters into an aggregation over active
// listings and returns one page of owner-enriched summaries plus pagination
// metadata. It is a pure read: no retries, no partial pages.
func (s *propertyService) SearchProperties(ctx context.Context, filters *models.Filters, page, limit int) (*models.SearchResult, error) {
	match, err := BuildSearchFilter(filters)
	if err != nil {
		return nil, err
	}

	// Out-of-bounds pagination values are clamped, not rejected
	if page < 1 {
		page = 1
	}
	defaultLimit, maxLimit := s.pageLimits()
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	skip := (page - 1) * limit

	collection := s.db.Collection(propertiesCollection)

	pipeline := []bson.M{
		totalCarSpacesStage(),
		{"$match": match},
		{"$sort": bson.M{"createdAt": -1}},
		{"$skip": skip},
		{"$limit": limit},
	}
	pipeline = append(pipeline, ownerLookupStages()...)
	pipeline = append(pipeline, summaryProjection())

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to execute property search: %w", err)
	}
	defer cursor.Close(ctx)

	properties := []models.PropertySummary{}
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode property search results: %w", err)
	}

	// Count all matches through the same derived-field pipeline, without
	// pagination. A plain countDocuments would never see totalCarSpaces.
	total, err := s.countMatches(ctx, match)
	if err != nil {
		return nil, err
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &models.SearchResult{
		Properties:  properties,
		Count:       len(properties),
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PerPage:     limit,
	}, nil
}

func (s *propertyService) pageLimits() (defaultLimit, maxLimit int) {
	defaultLimit, maxLimit = defaultSearchLimit, maxSearchLimit
	if s.cfg != nil && s.cfg.DefaultPageSize > 0 {
		defaultLimit = s.cfg.DefaultPageSize
	}
	if s.cfg != nil && s.cfg.MaxPageSize > 0 {
		maxLimit = s.cfg.MaxPageSize
	}
	return defaultLimit, maxLimit
}

func (s *propertyService) countMatches(ctx context.Context, match bson.M) (int64, error) {
	collection := s.db.Collection(propertiesCollection)
	cursor, err := collection.Aggregate(ctx, []bson.M{
		totalCarSpacesStage(),
		{"$match": match},
		{"$count": "n"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count property matches: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []struct {
		N int64 `bson:"n"`
	}
	if err = cursor.All(ctx, &counts); err != nil {
		return 0, fmt.Errorf("failed to decode property match count: %w", err)
	}
	if len(counts) == 0 {
		return 0, nil
	}
	return counts[0].N, nil
}

// MatchesFilters reports whether a single property satisfies a filter set.
// Used by the saved-search matcher; the active-only rule applies here too.
func (s *propertyService) MatchesFilters(ctx context.Context, filters *models.Filters, propertyID string) (bool, error) {
	match, err := BuildSearchFilter(filters)
	if err != nil {
		return false, err
	}
	match["id"] = propertyID

	n, err := s.countMatches(ctx, match)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindPropertyByID finds a property by its id regardless of active state.
func (s *propertyService) FindPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	collection := s.db.Collection(propertiesCollection)

	err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding property %s: %w", id, err)
	}
	return &property, nil
}

// CreateProperty inserts a new listing for the given owner. The service
// assigns the id, index, timestamps and lifecycle fields; the caller provides
// everything else.
func (s *propertyService) CreateProperty(ctx context.Context, ownerID int64, p *models.Property) (*models.Property, error) {
	collection := s.db.Collection(propertiesCollection)

	index, err := s.nextPropertyIndex(ctx)
	if err != nil {
		return nil, err
	}

	ttlDays := 7
	if s.cfg != nil && s.cfg.ListingTTLDays > 0 {
		ttlDays = s.cfg.ListingTTLDays
	}

	now := time.Now().Unix()
	p.Owner = ownerID
	p.Index = index
	p.Active = true
	p.CreatedAt = now
	p.ActiveUntil = now + int64(ttlDays)*24*60*60

	operation := func() error {
		p.ID = uuid.NewString()
		_, insertErr := collection.InsertOne(ctx, p)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert property for owner %d after multiple retries: %w", ownerID, err)
	}

	return p, nil
}

// UpdateProperty updates mutable fields of a listing owned by the specified
// user. The id, owner, index and lifecycle fields are not updatable here;
// use SetVisibility for the active flag.
func (s *propertyService) UpdateProperty(ctx context.Context, id string, ownerID int64, updates map[string]interface{}) (*models.Property, error) {
	collection := s.db.Collection(propertiesCollection)

	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "title", "description", "price", "listingType", "propertyType",
			"bedrooms", "bathrooms", "size", "location", "locality", "position",
			"amenities", "availabilitySchedule", "carSpaces", "images":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via UpdateProperty", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}

	filter := bson.M{"id": id, "owner": ownerID}
	update := bson.M{"$set": allowedUpdates}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Property
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Not found or not owned by the caller
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update property %s: %w", id, err)
	}

	return &updated, nil
}

// DeleteProperty removes a listing owned by the specified user and returns
// the deleted document so the caller can clean up its images.
func (s *propertyService) DeleteProperty(ctx context.Context, id string, ownerID int64) (*models.Property, error) {
	collection := s.db.Collection(propertiesCollection)

	var deleted models.Property
	err := collection.FindOneAndDelete(ctx, bson.M{"id": id, "owner": ownerID}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to delete property %s: %w", id, err)
	}
	return &deleted, nil
}

// SetVisibility toggles the active flag of a listing owned by the specified user.
func (s *propertyService) SetVisibility(ctx context.Context, id string, ownerID int64, active bool) error {
	collection := s.db.Collection(propertiesCollection)

	result, err := collection.UpdateOne(ctx,
		bson.M{"id": id, "owner": ownerID},
		bson.M{"$set": bson.M{"active": active}},
	)
	if err != nil {
		return fmt.Errorf("db error updating visibility of property %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByOwner returns all of a user's own listings, including inactive ones,
// with the owner identity joined in.
func (s *propertyService) ListByOwner(ctx context.Context, ownerID int64) ([]models.PropertySummary, error) {
	collection := s.db.Collection(propertiesCollection)

	pipeline := []bson.M{
		totalCarSpacesStage(),
		{"$match": bson.M{"owner": ownerID}},
		{"$sort": bson.M{"createdAt": -1}},
	}
	pipeline = append(pipeline, ownerLookupStages()...)
	pipeline = append(pipeline, summaryProjection())

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties of owner %d: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	listings := []models.PropertySummary{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode owner listings: %w", err)
	}
	return listings, nil
}

// AddImageToProperty appends a processed image key to a listing, capped at
// the configured maximum. Appending beyond the cap or re-appending the same
// key is a silent no-op so image workers can safely retry.
func (s *propertyService) AddImageToProperty(ctx context.Context, id string, imageKey string) error {
	maxImages := 3
	if s.cfg != nil && s.cfg.MaxImagesPerListing > 0 {
		maxImages = s.cfg.MaxImagesPerListing
	}

	collection := s.db.Collection(propertiesCollection)
	result, err := collection.UpdateOne(ctx,
		bson.M{
			"id":     id,
			"images": bson.M{"$ne": imageKey},
			fmt.Sprintf("images.%d", maxImages-1): bson.M{"$exists": false},
		},
		bson.M{"$push": bson.M{"images": imageKey}},
	)
	if err != nil {
		return fmt.Errorf("failed to add image %s to property %s: %w", imageKey, id, err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing listing from a full or duplicate image set
		n, err := collection.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("failed to verify property %s: %w", id, err)
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
	}
	return nil
}

// DeactivateExpired flips the active flag off for every listing whose
// activeUntil has passed. Returns the number of listings deactivated.
func (s *propertyService) DeactivateExpired(ctx context.Context, now int64) (int64, error) {
	collection := s.db.Collection(propertiesCollection)

	result, err := collection.UpdateMany(ctx,
		bson.M{"active": true, "activeUntil": bson.M{"$gt": 0, "$lte": now}},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired listings: %w", err)
	}
	return result.ModifiedCount, nil
}

// CurrentPropertyIndex returns the most recently issued property index
// without advancing the counter.
func (s *propertyService) CurrentPropertyIndex(ctx context.Context) (int64, error) {
	var counter struct {
		Index int64 `bson:"index"`
	}
	err := s.db.Collection(countersCollection).
		FindOne(ctx, bson.M{"_id": "property_index"}).Decode(&counter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read property index counter: %w", err)
	}
	return counter.Index, nil
}

// nextPropertyIndex atomically increments and returns the property index counter.
func (s *propertyService) nextPropertyIndex(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Index int64 `bson:"index"`
	}
	err := s.db.Collection(countersCollection).
		FindOneAndUpdate(ctx,
			bson.M{"_id": "property_index"},
			bson.M{"$inc": bson.M{"index": 1}},
			opts,
		).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance property index counter: %w", err)
	}
	return counter.Index, nil
}
