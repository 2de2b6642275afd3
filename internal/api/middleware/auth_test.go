package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/auth"
	"github.com/jacqueschris/ownerlist/internal/config"
)

const testBotToken = "7000000001:AAFakeBotTokenForUnitTestsOnly0000000"

func setupAuthEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.TelegramAuthMiddleware(cfg))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": middleware.CurrentUserID(c)})
	})
	return r
}

func signedInitData(userID int64) string {
	values := url.Values{}
	values.Set("user", fmt.Sprintf(`{"id":%d,"first_name":"Jane","username":"janeborg"}`, userID))
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("hash", auth.SignInitData(values, testBotToken))
	return values.Encode()
}

func TestTelegramAuthMiddleware_InitData(t *testing.T) {
	cfg := &config.Config{BotToken: testBotToken, JwtSecret: "secret"}
	router := setupAuthEngine(cfg)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "tma "+signedInitData(123456789))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "123456789")
}

func TestTelegramAuthMiddleware_SessionToken(t *testing.T) {
	cfg := &config.Config{BotToken: testBotToken, JwtSecret: "secret"}
	router := setupAuthEngine(cfg)

	token, err := auth.GenerateJWT(123456789, "Jane", "janeborg", cfg.JwtSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "123456789")
}

func TestTelegramAuthMiddleware_Rejections(t *testing.T) {
	cfg := &config.Config{BotToken: testBotToken, JwtSecret: "secret"}
	router := setupAuthEngine(cfg)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"bad scheme", "Basic dXNlcjpwYXNz"},
		{"tampered init data", "tma user=%7B%22id%22%3A1%7D&hash=deadbeef"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestTelegramAuthMiddleware_ExpiredInitData(t *testing.T) {
	cfg := &config.Config{BotToken: testBotToken, JwtSecret: "secret", InitDataMaxAge: time.Hour}
	router := setupAuthEngine(cfg)

	values := url.Values{}
	values.Set("user", `{"id":1,"first_name":"Old"}`)
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Add(-2*time.Hour).Unix()))
	values.Set("hash", auth.SignInitData(values, testBotToken))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "tma "+values.Encode())
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}
