package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/api/handlers"
	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/services"
	"github.com/jacqueschris/ownerlist/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient *asynq.Client) *gin.Engine {
	// Initialize services needed by API handlers
	userService := services.NewUserService(db, cfg)
	propertyService := services.NewPropertyService(db, cfg)
	favoriteService := services.NewFavoriteService(db, cfg)
	viewingService := services.NewViewingService(db, cfg)
	alertService := services.NewAlertService(db, cfg)

	var s3StorageService storage.IS3Storage
	if cfg.AwsS3Bucket != "" {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
		}
		s3StorageService = storage.NewS3Storage(cfg, s3Client)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService)
	propertyHandler := handlers.NewPropertyHandler(cfg, propertyService, s3StorageService, taskClient)
	favoritesHandler := handlers.NewFavoritesHandler(favoriteService)
	viewingsHandler := handlers.NewViewingsHandler(viewingService)
	userHandler := handlers.NewUserHandler(userService)
	alertHandler := handlers.NewAlertHandler(alertService)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Everything else requires a Telegram identity. Rate limiting runs
		// after auth so clients are keyed by user id.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.TelegramAuthMiddleware(cfg), rateLimiter.Limit())
		{
			authRequired.POST("/auth/session", authHandler.CreateSession)

			authRequired.POST("/properties/search", propertyHandler.SearchProperties)
			authRequired.GET("/properties/:id", propertyHandler.GetPropertyByID)
			authRequired.POST("/properties", propertyHandler.CreateProperty)
			authRequired.PATCH("/properties/:id", propertyHandler.UpdateProperty)
			authRequired.DELETE("/properties/:id", propertyHandler.DeleteProperty)
			authRequired.PUT("/properties/:id/visibility", propertyHandler.SetVisibility)
			authRequired.POST("/properties/:id/images", propertyHandler.RequestImageUpload)
			authRequired.POST("/properties/:id/images/process", propertyHandler.ConfirmImageUpload)
			authRequired.GET("/my/properties", propertyHandler.GetOwnListings)

			authRequired.POST("/favorites", favoritesHandler.AddFavorite)
			authRequired.GET("/favorites", favoritesHandler.ListFavorites)
			authRequired.DELETE("/favorites/:propertyId", favoritesHandler.RemoveFavorite)

			authRequired.POST("/viewings", viewingsHandler.CreateViewing)
			authRequired.GET("/viewings", viewingsHandler.ListViewings)
			authRequired.PUT("/viewings/:id/status", viewingsHandler.UpdateViewingStatus)
			authRequired.DELETE("/viewings/:id", viewingsHandler.DeleteViewing)

			authRequired.GET("/users/me", userHandler.GetMe)
			authRequired.DELETE("/users/me", userHandler.DeleteMe)

			authRequired.POST("/alerts", alertHandler.CreateAlert)
			authRequired.GET("/alerts", alertHandler.ListAlerts)
			authRequired.PUT("/alerts/:id", alertHandler.ToggleAlert)
			authRequired.DELETE("/alerts/:id", alertHandler.DeleteAlert)
		}
	}

	return r
}
