package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/models"
	"github.com/jacqueschris/ownerlist/internal/utils"
)

func setupTestDBUser(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName,
		"users", "properties", "favorites", "viewings", "saved_searches")
}

func TestUserService_Register(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_service_register")
	svc := NewUserService(db, &config.Config{})
	ctx := context.Background()

	user, err := svc.Register(ctx, 100, "Jane Borg", "janeborg")
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.ID)
	assert.Equal(t, "Jane Borg", user.Name)
	assert.NotZero(t, user.CreatedAt)

	// Re-registering refreshes the identity, keeps the record
	again, err := svc.Register(ctx, 100, "Jane Vella", "janevella")
	require.NoError(t, err)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)
	assert.Equal(t, "Jane Vella", again.Name)
	assert.Equal(t, "janevella", again.Username)

	n, err := db.Collection("users").CountDocuments(ctx, map[string]interface{}{"id": int64(100)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := svc.FindUserByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "janevella", found.Username)

	_, err = svc.FindUserByID(ctx, 999)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestUserService_DeleteUser_Cascades(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_service_delete")
	cfg := &config.Config{}
	userSvc := NewUserService(db, cfg)
	propertySvc := NewPropertyService(db, cfg)
	favoriteSvc := NewFavoriteService(db, cfg)
	viewingSvc := NewViewingService(db, cfg)
	alertSvc := NewAlertService(db, cfg)
	ctx := context.Background()

	_, err := userSvc.Register(ctx, 100, "Owner", "owner")
	require.NoError(t, err)
	_, err = userSvc.Register(ctx, 200, "Visitor", "visitor")
	require.NoError(t, err)

	mine, err := propertySvc.CreateProperty(ctx, 100, &models.Property{
		ListingType: "buy", Title: "Mine",
	})
	require.NoError(t, err)
	theirs, err := propertySvc.CreateProperty(ctx, 200, &models.Property{
		ListingType: "rent", Title: "Theirs",
	})
	require.NoError(t, err)

	require.NoError(t, favoriteSvc.AddFavorite(ctx, 100, theirs.ID))
	require.NoError(t, favoriteSvc.AddFavorite(ctx, 200, mine.ID))

	_, err = viewingSvc.CreateViewing(ctx, 200, mine.ID, time.Now().Unix())
	require.NoError(t, err)

	_, err = alertSvc.CreateAlert(ctx, 100, "Anything", models.Filters{})
	require.NoError(t, err)

	err = userSvc.DeleteUser(ctx, 100)
	require.NoError(t, err)

	// Profile, listings, favorites, alerts and viewings are all gone
	_, err = userSvc.FindUserByID(ctx, 100)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	_, err = propertySvc.FindPropertyByID(ctx, mine.ID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	ids, err := favoriteSvc.ListFavoriteIDs(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, ids)

	alerts, err := alertSvc.ListAlerts(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	viewings, err := viewingSvc.ListViewings(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, viewings)

	// The other user's own data is untouched
	_, err = propertySvc.FindPropertyByID(ctx, theirs.ID)
	assert.NoError(t, err)

	err = userSvc.DeleteUser(ctx, 100)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
