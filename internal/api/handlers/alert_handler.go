package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jacqueschris/ownerlist/internal/api/middleware"
	"github.com/jacqueschris/ownerlist/internal/models"
	"github.com/jacqueschris/ownerlist/internal/services"
)

// AlertHandler handles REST requests for saved-search alerts.
type AlertHandler struct {
	alertService services.IAlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService services.IAlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

type createAlertRequest struct {
	Name    string         `json:"name" binding:"required"`
	Filters models.Filters `json:"filters"`
}

// CreateAlert handles POST /v1/alerts
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain 'name' and 'filters'"})
		return
	}

	userID := middleware.CurrentUserID(c)
	alert, err := h.alertService.CreateAlert(c.Request.Context(), userID, req.Name, req.Filters)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilters) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		}
		return
	}

	c.JSON(http.StatusCreated, alert)
}

// ListAlerts handles GET /v1/alerts
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	alerts, err := h.alertService.ListAlerts(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

type toggleAlertRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ToggleAlert handles PUT /v1/alerts/:id
func (h *AlertHandler) ToggleAlert(c *gin.Context) {
	var req toggleAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Body must contain an 'active' boolean"})
		return
	}

	userID := middleware.CurrentUserID(c)
	err := h.alertService.ToggleAlert(c.Request.Context(), c.Param("id"), userID, *req.Active)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": *req.Active})
}

// DeleteAlert handles DELETE /v1/alerts/:id
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	err := h.alertService.DeleteAlert(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete alert"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}
