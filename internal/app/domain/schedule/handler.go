package schedule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
)

type Handlers struct {
	service Service
	logger  *zap.Logger
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

type userEventRequest struct {
	UserID  int64 `json:"userId"`
	EventID int64 `json:"eventId"`
}

type housingRequest struct {
	UserID           int64  `json:"userId"`
	EventID          int64  `json:"eventId"`
	HousingConfirmed string `json:"housingConfirmed"`
}

type bulkAddRequest struct {
	UserID   int64  `json:"userId"`
	CityName string `json:"cityName"`
}

// AddEvent handles POST /user/events
func (h *Handlers) AddEvent(c *gin.Context) {
	var req userEventRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.EventID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and eventId are required"})
		return
	}

	err := h.service.AddEvent(c.Request.Context(), req.UserID, req.EventID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Event added successfully", "eventId": req.EventID})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an event scheduled on this date"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to add event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// ListEvents handles GET /user/:userId/events
func (h *Handlers) ListEvents(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	userEvents, err := h.service.ListEvents(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list user events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, userEvents)
}

// RemoveEvent handles DELETE /user/events
func (h *Handlers) RemoveEvent(c *gin.Context) {
	var req userEventRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.EventID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and eventId are required"})
		return
	}

	err := h.service.RemoveEvent(c.Request.Context(), req.UserID, req.EventID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Event removed successfully", "eventId": req.EventID})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found in your list"})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to remove event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// SetHousing handles PUT /user/events/housing
func (h *Handlers) SetHousing(c *gin.Context) {
	var req housingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.EventID == 0 || req.HousingConfirmed == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId, eventId, and housingConfirmed are required"})
		return
	}

	err := h.service.SetHousingConfirmed(c.Request.Context(), req.UserID, req.EventID, req.HousingConfirmed)
	switch {
	case err == nil:
		status := "not confirmed"
		if req.HousingConfirmed == HousingConfirmedYes {
			status = "confirmed"
		}
		c.JSON(http.StatusOK, gin.H{
			"message":          "Housing status updated to " + status,
			"eventId":          req.EventID,
			"housingConfirmed": req.HousingConfirmed,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found in your list"})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "housingConfirmed must be 'Y' or 'N'"})
	default:
		h.logger.Error("Failed to update housing status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// BulkAddCity handles POST /user/events/bulk-add-city
func (h *Handlers) BulkAddCity(c *gin.Context) {
	var req bulkAddRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.CityName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and cityName are required"})
		return
	}

	result, err := h.service.BulkAddSoonestInCity(c.Request.Context(), req.UserID, req.CityName)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message":       "Events added successfully",
			"addedCount":    result.AddedCount,
			"skippedCount":  result.SkippedCount,
			"addedEvents":   result.AddedEvents,
			"skippedEvents": result.SkippedEvents,
		})
	case errors.Is(err, models.ErrAllSkipped):
		c.JSON(http.StatusConflict, gin.H{
			"error":         "All 5 soonest events are either already in your list or conflict with your existing schedule",
			"skippedEvents": result.SkippedEvents,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No upcoming events found in that city"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an event scheduled on this date"})
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Bulk add failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}
