package services

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jacqueschris/ownerlist/internal/models"
)

// BuildSearchFilter translates a Filters value into the bson.M match document
// used by the search pipeline. Every constraint is ANDed with the rest, and
// active == true is always appended: inactive listings never surface.
//
// The garageSpaces constraint targets totalCarSpaces, a field that only
// exists after the pipeline's $addFields stage has summed carSpaces.capacity.
// The returned document must therefore only ever be used behind that stage.
func BuildSearchFilter(f *models.Filters) (bson.M, error) {
	if f == nil {
		return nil, ErrInvalidFilters
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}

	filter := bson.M{}

	if f.ListingType != "" && f.ListingType != models.ListingTypeAll {
		filter["listingType"] = f.ListingType
	}
	if len(f.PriceRange) == 2 {
		filter["price"] = bson.M{"$gte": f.PriceRange[0], "$lte": f.PriceRange[1]}
	}
	if len(f.PropertyType) > 0 {
		filter["propertyType"] = bson.M{"$in": f.PropertyType}
	}
	if len(f.Locality) > 0 {
		filter["locality"] = bson.M{"$in": f.Locality}
	}
	if c, err := countConstraint(f.Bedrooms); err != nil {
		return nil, err
	} else if c != nil {
		filter["bedrooms"] = c
	}
	if c, err := countConstraint(f.Bathrooms); err != nil {
		return nil, err
	} else if c != nil {
		filter["bathrooms"] = c
	}
	if c, err := countConstraint(f.GarageSpaces); err != nil {
		return nil, err
	} else if c != nil {
		filter["totalCarSpaces"] = c
	}
	if len(f.Size) == 2 {
		filter["size"] = bson.M{"$gte": f.Size[0], "$lte": f.Size[1]}
	}
	if len(f.Amenities) > 0 {
		// All requested amenities must be present, not any
		filter["amenities"] = bson.M{"$all": f.Amenities}
	}

	filter["active"] = true

	return filter, nil
}

// countConstraint maps "", "N" and "N+" onto a bson match value: nil for no
// constraint, a plain int for equality, or a $gte document for "N or more".
func countConstraint(s string) (interface{}, error) {
	n, atLeast, err := models.ParseCountFilter(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	if s == "" {
		return nil, nil
	}
	if atLeast {
		return bson.M{"$gte": n}, nil
	}
	return n, nil
}

// totalCarSpacesStage derives the combined parking capacity for every
// candidate document. $sum over a missing or empty array yields 0.
func totalCarSpacesStage() bson.M {
	return bson.M{"$addFields": bson.M{
		"totalCarSpaces": bson.M{"$sum": "$carSpaces.capacity"},
	}}
}

// ownerLookupStages joins the owner's profile from the users collection.
// The $unwind preserves listings whose owner record is missing: they are
// returned with empty owner fields, never dropped.
func ownerLookupStages() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         usersCollection,
			"localField":   "owner",
			"foreignField": "id",
			"as":           "ownerDetails",
		}},
		{"$unwind": bson.M{
			"path":                       "$ownerDetails",
			"preserveNullAndEmptyArrays": true,
		}},
	}
}

// summaryProjection shapes a joined document into a PropertySummary, swapping
// the raw owner id for the resolved identity.
func summaryProjection() bson.M {
	return bson.M{"$project": bson.M{
		"_id":                  0,
		"id":                   1,
		"active":               1,
		"listingType":          1,
		"propertyType":         1,
		"title":                1,
		"price":                1,
		"bedrooms":             1,
		"bathrooms":            1,
		"size":                 1,
		"location":             1,
		"locality":             1,
		"position":             1,
		"description":          1,
		"amenities":            1,
		"availabilitySchedule": 1,
		"carSpaces":            1,
		"images":               1,
		"createdAt":            1,
		"activeUntil":          1,
		"totalCarSpaces":       1,
		"owner": bson.M{
			"id":       "$ownerDetails.id",
			"name":     "$ownerDetails.name",
			"username": "$ownerDetails.username",
		},
	}}
}
