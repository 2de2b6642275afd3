package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/services"
)

// ViewingsHandler handles REST requests for viewing appointments.
type ViewingsHandler struct {
	viewingService services.IViewingService
}

// NewViewingsHandler creates a new ViewingsHandler.
func NewViewingsHandler(viewingService services.IViewingService) *ViewingsHandler {
	return &ViewingsHandler{viewingService: viewingService}
}

type createViewingRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	Date       int64  `json:"date" binding:"required"`
}

// CreateViewing handles POST /v1/viewings
func (h *ViewingsHandler) CreateViewing(c *gin.Context) {
	var req createViewingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain 'propertyId' and 'date'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	viewing, err := h.viewingService.CreateViewing(c.Request.Context(), userID, req.PropertyID, req.Date)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, viewing)
}

// ListViewings handles GET /v1/viewings
func (h *ViewingsHandler) ListViewings(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	viewings, err := h.viewingService.ListViewings(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch viewings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"viewings": viewings, "count": len(viewings)})
}

type viewingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateViewingStatus handles PUT /v1/viewings/:id/status
func (h *ViewingsHandler) UpdateViewingStatus(c *gin.Context) {
	var req viewingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain 'status'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	viewing, err := h.viewingService.UpdateViewingStatus(c.Request.Context(), c.Param("id"), userID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidViewingStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotViewingParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the property owner can change the status"})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Viewing not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update viewing"})
		}
		return
	}

	c.JSON(http.StatusOK, viewing)
}

// DeleteViewing handles DELETE /v1/viewings/:id
func (h *ViewingsHandler) DeleteViewing(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	err := h.viewingService.DeleteViewing(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Viewing not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete viewing"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}
