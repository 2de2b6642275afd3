package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/models"
	"github.com/jacqueschris/ownerlist/internal/utils"
)

func setupTestDBAlert(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, "saved_searches", "properties", "users", "counters")
}

func TestAlertService_CRUD(t *testing.T) {
	db := setupTestDBAlert(t, "testdb_alert_service_crud")
	svc := NewAlertService(db, &config.Config{})
	ctx := context.Background()

	alert, err := svc.CreateAlert(ctx, 200, "Sliema rentals", models.Filters{
		ListingType: "rent", Locality: []string{"Sliema"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, alert.ID)
	assert.True(t, alert.Active)
	assert.Equal(t, int64(0), alert.LastPropertyIndex)

	_, err = svc.CreateAlert(ctx, 200, "Broken", models.Filters{ListingType: "lease"})
	assert.ErrorIs(t, err, ErrInvalidFilters)

	alerts, err := svc.ListAlerts(ctx, 200)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Sliema rentals", alerts[0].Name)

	// Only the alert's owner may toggle or delete it
	err = svc.ToggleAlert(ctx, alert.ID, 999, false)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	err = svc.ToggleAlert(ctx, alert.ID, 200, false)
	require.NoError(t, err)
	alerts, err = svc.ListAlerts(ctx, 200)
	require.NoError(t, err)
	assert.False(t, alerts[0].Active)

	err = svc.DeleteAlert(ctx, alert.ID, 999)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	err = svc.DeleteAlert(ctx, alert.ID, 200)
	require.NoError(t, err)

	alerts, err = svc.ListAlerts(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAlertService_MatchAlertsForProperty(t *testing.T) {
	db := setupTestDBAlert(t, "testdb_alert_service_match")
	cfg := &config.Config{}
	alertSvc := NewAlertService(db, cfg)
	propertySvc := NewPropertyService(db, cfg)
	ctx := context.Background()

	matching, err := alertSvc.CreateAlert(ctx, 200, "Buy in Mosta", models.Filters{
		ListingType: "buy", Locality: []string{"Mosta"},
	})
	require.NoError(t, err)

	_, err = alertSvc.CreateAlert(ctx, 300, "Rentals only", models.Filters{
		ListingType: "rent",
	})
	require.NoError(t, err)

	// The owner's own alert would match but never fires for their listing
	_, err = alertSvc.CreateAlert(ctx, 100, "My own alert", models.Filters{
		ListingType: "buy",
	})
	require.NoError(t, err)

	paused, err := alertSvc.CreateAlert(ctx, 400, "Paused", models.Filters{ListingType: "buy"})
	require.NoError(t, err)
	require.NoError(t, alertSvc.ToggleAlert(ctx, paused.ID, 400, false))

	property, err := propertySvc.CreateProperty(ctx, 100, &models.Property{
		ListingType: "buy", Title: "Mosta townhouse", Locality: "Mosta",
	})
	require.NoError(t, err)

	matched, err := alertSvc.MatchAlertsForProperty(ctx, propertySvc, property)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, matching.ID, matched[0].ID)

	// Once announced, the listing never matches that alert again
	err = alertSvc.AdvanceAlertIndex(ctx, matching.ID, property.Index)
	require.NoError(t, err)

	matched, err = alertSvc.MatchAlertsForProperty(ctx, propertySvc, property)
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestAlertService_IgnoresListingsOlderThanAlert(t *testing.T) {
	db := setupTestDBAlert(t, "testdb_alert_service_backlog")
	cfg := &config.Config{}
	alertSvc := NewAlertService(db, cfg)
	propertySvc := NewPropertyService(db, cfg)
	ctx := context.Background()

	old, err := propertySvc.CreateProperty(ctx, 100, &models.Property{
		ListingType: "buy", Title: "Pre-existing",
	})
	require.NoError(t, err)

	// The alert starts at the current index, so the backlog never matches
	_, err = alertSvc.CreateAlert(ctx, 200, "Everything", models.Filters{})
	require.NoError(t, err)

	matched, err := alertSvc.MatchAlertsForProperty(ctx, propertySvc, old)
	require.NoError(t, err)
	assert.Empty(t, matched)

	fresh, err := propertySvc.CreateProperty(ctx, 100, &models.Property{
		ListingType: "buy", Title: "Brand new",
	})
	require.NoError(t, err)

	matched, err = alertSvc.MatchAlertsForProperty(ctx, propertySvc, fresh)
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}
