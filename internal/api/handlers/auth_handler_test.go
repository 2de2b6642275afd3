package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacqueschris/ownerlist/internal/api/handlers"
	"github.com/jacqueschris/ownerlist/internal/auth"
	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/models"
)

func TestAuthHandler_CreateSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockUsers := new(MockUserService)
	cfg := &config.Config{JwtSecret: "test-secret", JwtTTL: time.Hour}
	handler := handlers.NewAuthHandler(cfg, mockUsers)

	r := gin.New()
	r.Use(asUser(testUserID))
	r.POST("/v1/auth/session", handler.CreateSession)

	user := &models.User{ID: testUserID, Name: "Jane Borg", Username: "janeborg"}
	mockUsers.On("Register", mock.Anything, testUserID, "Jane Borg", "janeborg").Return(user, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/auth/session", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token     string      `json:"token"`
		ExpiresIn int         `json:"expiresIn"`
		User      models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, testUserID, resp.User.ID)

	// The issued token must round-trip through our own validator
	claims, err := auth.ValidateJWT(resp.Token, cfg.JwtSecret)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, "janeborg", claims.Username)

	mockUsers.AssertExpectations(t)
}

func TestAuthHandler_CreateSession_RegistrationFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockUsers := new(MockUserService)
	cfg := &config.Config{JwtSecret: "test-secret", JwtTTL: time.Hour}
	handler := handlers.NewAuthHandler(cfg, mockUsers)

	r := gin.New()
	r.Use(asUser(testUserID))
	r.POST("/v1/auth/session", handler.CreateSession)

	mockUsers.On("Register", mock.Anything, testUserID, "Jane Borg", "janeborg").Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/auth/session", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	mockUsers.AssertExpectations(t)
}
