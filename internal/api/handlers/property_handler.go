package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/config"
	"github.com/jacqueschris/ownerlist/internal/models"
	"github.com/jacqueschris/ownerlist/internal/services"
	"github.com/jacqueschris/ownerlist/internal/storage"
	"github.com/jacqueschris/ownerlist/internal/tasks"
)

// PropertyHandler handles REST requests for listings.
type PropertyHandler struct {
	cfg             *config.Config
	propertyService services.IPropertyService
	storageService  storage.IS3Storage
	taskClient      *asynq.Client
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(cfg *config.Config, propertyService services.IPropertyService, storageService storage.IS3Storage, taskClient *asynq.Client) *PropertyHandler {
	return &PropertyHandler{
		cfg:             cfg,
		propertyService: propertyService,
		storageService:  storageService,
		taskClient:      taskClient,
	}
}

// SearchProperties handles POST /v1/properties/search. Filters travel in the
// body; page and limit as query parameters.
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	var filters models.Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search filters"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result, err := h.propertyService.SearchProperties(c.Request.Context(), &filters, page, limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilters) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPropertyByID handles GET /v1/properties/:id
func (h *PropertyHandler) GetPropertyByID(c *gin.Context) {
	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
		}
		return
	}

	c.JSON(http.StatusOK, property)
}

type createPropertyRequest struct {
	ListingType          string                   `json:"listingType" binding:"required"`
	PropertyType         string                   `json:"propertyType" binding:"required"`
	Title                string                   `json:"title" binding:"required"`
	Price                float64                  `json:"price" binding:"required"`
	Bedrooms             int                      `json:"bedrooms"`
	Bathrooms            int                      `json:"bathrooms"`
	Size                 float64                  `json:"size"`
	Location             string                   `json:"location"`
	Locality             string                   `json:"locality" binding:"required"`
	Position             []float64                `json:"position"`
	Description          string                   `json:"description"`
	Amenities            []string                 `json:"amenities"`
	AvailabilitySchedule []models.DayAvailability `json:"availabilitySchedule"`
	CarSpaces            []models.CarSpace        `json:"carSpaces"`
}

// CreateProperty handles POST /v1/properties
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property payload: " + err.Error()})
		return
	}
	if req.ListingType != models.ListingTypeBuy && req.ListingType != models.ListingTypeRent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listingType must be 'buy' or 'rent'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	property, err := h.propertyService.CreateProperty(c.Request.Context(), userID, &models.Property{
		ListingType:          req.ListingType,
		PropertyType:         req.PropertyType,
		Title:                req.Title,
		Price:                req.Price,
		Bedrooms:             req.Bedrooms,
		Bathrooms:            req.Bathrooms,
		Size:                 req.Size,
		Location:             req.Location,
		Locality:             req.Locality,
		Position:             req.Position,
		Description:          req.Description,
		Amenities:            req.Amenities,
		AvailabilitySchedule: req.AvailabilitySchedule,
		CarSpaces:            req.CarSpaces,
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	if h.taskClient != nil {
		if err := tasks.EnqueueAlertMatch(h.taskClient, property.ID); err != nil {
			// The listing exists either way; matching is best effort
			log.Printf("Error enqueueing alert match for property %s: %v", property.ID, err)
		}
	}

	c.JSON(http.StatusCreated, property)
}

// UpdateProperty handles PATCH /v1/properties/:id
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload"})
		return
	}

	userID := middleware.CurrentUserID(c)
	property, err := h.propertyService.UpdateProperty(c.Request.Context(), c.Param("id"), userID, updates)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, property)
}

// DeleteProperty handles DELETE /v1/properties/:id
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	deleted, err := h.propertyService.DeleteProperty(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete property"})
		}
		return
	}

	if h.storageService != nil {
		for _, key := range deleted.Images {
			if err := h.storageService.DeleteObject(c.Request.Context(), key); err != nil {
				log.Printf("Error deleting image %s of property %s: %v", key, deleted.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted.ID})
}

type visibilityRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetVisibility handles PUT /v1/properties/:id/visibility
func (h *PropertyHandler) SetVisibility(c *gin.Context) {
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain an 'active' boolean"})
		return
	}

	userID := middleware.CurrentUserID(c)
	err := h.propertyService.SetVisibility(c.Request.Context(), c.Param("id"), userID, *req.Active)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update visibility"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": *req.Active})
}

// GetOwnListings handles GET /v1/my/properties
func (h *PropertyHandler) GetOwnListings(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	listings, err := h.propertyService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"properties": listings, "count": len(listings)})
}

type imageUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// RequestImageUpload handles POST /v1/properties/:id/images. It returns a
// pre-signed PUT URL for the client to upload against.
func (h *PropertyHandler) RequestImageUpload(c *gin.Context) {
	if h.storageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain 'filename' and 'contentType'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
		}
		return
	}
	if property.Owner != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can add images"})
		return
	}
	if len(property.Images) >= h.cfg.MaxImagesPerListing {
		c.JSON(http.StatusConflict, gin.H{"error": "Image limit reached for this listing"})
		return
	}

	uploadURL, key, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), userID, property.ID, req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL, "key": key})
}

type imageProcessRequest struct {
	Key string `json:"key" binding:"required"`
}

// ConfirmImageUpload handles POST /v1/properties/:id/images/process. The
// client calls it after the pre-signed upload succeeds; the image worker
// normalizes the object and attaches it to the listing.
func (h *PropertyHandler) ConfirmImageUpload(c *gin.Context) {
	if h.storageService == nil || h.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	var req imageProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain the uploaded object 'key'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
		}
		return
	}
	if property.Owner != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can add images"})
		return
	}

	if err := tasks.EnqueueImageProcess(h.taskClient, req.Key, property.ID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue image processing"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"key": req.Key, "status": "processing"})
}
