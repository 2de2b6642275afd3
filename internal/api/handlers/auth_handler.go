package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/auth"
	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/services"
)

// AuthHandler issues session tokens for validated Mini App clients.
type AuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, userService services.IUserService) *AuthHandler {
	return &AuthHandler{cfg: cfg, userService: userService}
}

// CreateSession handles POST /v1/auth/session. The route sits behind the
// auth middleware, so by the time it runs the init data (or a previous
// session token) has been validated. It upserts the user profile and returns
// a fresh session token so later requests skip init data validation.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	name := c.GetString(middleware.ContextKeyUserName)
	username := c.GetString(middleware.ContextKeyUserUsername)

	user, err := h.userService.Register(c.Request.Context(), userID, name, username)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Name, user.Username, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(h.cfg.JwtTTL.Seconds()),
		"user":      user,
	})
}
