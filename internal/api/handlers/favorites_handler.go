package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/services"
)

// FavoritesHandler handles REST requests for saved properties.
type FavoritesHandler struct {
	favoriteService services.IFavoriteService
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(favoriteService services.IFavoriteService) *FavoritesHandler {
	return &FavoritesHandler{favoriteService: favoriteService}
}

type favoriteRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
}

// AddFavorite handles POST /v1/favorites
func (h *FavoritesHandler) AddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain 'propertyId'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	if err := h.favoriteService.AddFavorite(c.Request.Context(), userID, req.PropertyID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save favorite"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"propertyId": req.PropertyID})
}

// RemoveFavorite handles DELETE /v1/favorites/:propertyId
func (h *FavoritesHandler) RemoveFavorite(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	err := h.favoriteService.RemoveFavorite(c.Request.Context(), userID, c.Param("propertyId"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Favorite not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"propertyId": c.Param("propertyId")})
}

// ListFavorites handles GET /v1/favorites. It returns resolved, active
// listings; pass ?ids=true for the raw id set instead.
func (h *FavoritesHandler) ListFavorites(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if c.Query("ids") == "true" {
		ids, err := h.favoriteService.ListFavoriteIDs(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"propertyIds": ids})
		return
	}

	properties, err := h.favoriteService.ListFavoriteProperties(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"properties": properties, "count": len(properties)})
}
