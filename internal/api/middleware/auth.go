package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jacqueschris/ownerlist/internal/auth"
	"github.com/jacqueschris/ownerlist/internal/config"
)

const (
	// ContextKeyUserID holds the key for the Telegram user id in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyUserName holds the key for the user's display name.
	ContextKeyUserName = "userName"
	// ContextKeyUserUsername holds the key for the user's Telegram username.
	ContextKeyUserUsername = "userUsername"
)

// TelegramAuthMiddleware authenticates requests from the Mini App. Two
// schemes are accepted:
//
//	Authorization: tma <raw init data>     (validated against the bot token)
//	Authorization: Bearer <session token>  (issued by the auth endpoint)
func TelegramAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be 'tma {initData}' or 'Bearer {token}'"})
			return
		}

		switch strings.ToLower(parts[0]) {
		case "tma":
			data, err := auth.ValidateInitData(parts[1], cfg.BotToken, cfg.InitDataMaxAge)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "Invalid init data"
				if errors.Is(err, auth.ErrExpiredInitData) {
					msg = "Init data expired"
				}
				c.AbortWithStatusJSON(status, gin.H{"error": msg})
				return
			}
			c.Set(ContextKeyUserID, data.User.ID)
			c.Set(ContextKeyUserName, data.User.Name())
			c.Set(ContextKeyUserUsername, data.User.Username)

		case "bearer":
			claims, err := auth.ValidateJWT(parts[1], cfg.JwtSecret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyUserName, claims.Name)
			c.Set(ContextKeyUserUsername, claims.Username)

		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unsupported authorization scheme"})
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated Telegram user id from the context.
// It must only be called behind TelegramAuthMiddleware.
func CurrentUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextKeyUserID)
}
