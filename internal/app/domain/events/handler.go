package events

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashleyhua/get-litty/internal/app/models"
)

// Fixed filters baked into two legacy endpoints.
const (
	regionIllinois = "Illinois"
	cityChicago    = "Chicago"
	fixedListCap   = 10
)

type Handlers struct {
	service     Service
	logger      *zap.Logger
	resultLimit int
}

func NewHandlers(service Service, resultLimit int, logger *zap.Logger) *Handlers {
	return &Handlers{
		service:     service,
		logger:      logger,
		resultLimit: resultLimit,
	}
}

// respondError maps domain errors to the documented status codes without
// leaking storage detail.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.logger.Error("Unclassified data access failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

// RandomEvent handles GET /events/random
func (h *Handlers) RandomEvent(c *gin.Context) {
	detail, err := h.service.RandomEvent(c.Request.Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No events available"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CheapestLodging handles GET /events/cheapest
func (h *Handlers) CheapestLodging(c *gin.Context) {
	summaries, err := h.service.CheapestLodgingPerEvent(c.Request.Context(), DefaultCheapestRadius, h.resultLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// IllinoisCheapest handles GET /events/illinois-cheapest
func (h *Handlers) IllinoisCheapest(c *gin.Context) {
	summaries, err := h.service.CheapestInRegion(c.Request.Context(), regionIllinois, DefaultCheapestRadius, fixedListCap)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// MostAvailability handles GET /events/most-availability
func (h *Handlers) MostAvailability(c *gin.Context) {
	summaries, err := h.service.MostAvailableListings(c.Request.Context(), DefaultAvailabilityRadius, h.resultLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// ChicagoBelowAverage handles GET /events/chicago-below-avg
func (h *Handlers) ChicagoBelowAverage(c *gin.Context) {
	results, err := h.service.BelowAverageLodging(c.Request.Context(), cityChicago, DefaultBelowAvgRadius, fixedListCap)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Recommendations handles GET /events/recommendations: the unfiltered search,
// available listings within the default radius, ranked by total cost.
func (h *Handlers) Recommendations(c *gin.Context) {
	results, err := h.service.SearchEvents(c.Request.Context(), models.SearchFilter{})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SearchEvents handles GET /events/search?name=&startDate=&endDate=&maxDistance=
func (h *Handlers) SearchEvents(c *gin.Context) {
	filter := models.SearchFilter{Name: c.Query("name")}

	if raw := c.Query("startDate"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
			return
		}
		filter.StartDate = &d
	}
	if raw := c.Query("endDate"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
			return
		}
		filter.EndDate = &d
	}
	if raw := c.Query("maxDistance"); raw != "" {
		dist, err := strconv.ParseFloat(raw, 64)
		if err != nil || dist < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxDistance must be a non-negative number"})
			return
		}
		filter.MaxDistance = dist
	}

	results, err := h.service.SearchEvents(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// TopListings handles GET /events/:eventId/top-listings?maxDistance=
func (h *Handlers) TopListings(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event id"})
		return
	}

	maxDistance := DefaultTopListingsRadius
	if raw := c.Query("maxDistance"); raw != "" {
		maxDistance, err = strconv.ParseFloat(raw, 64)
		if err != nil || maxDistance < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxDistance must be a non-negative number"})
			return
		}
	}

	listings, err := h.service.TopListingsForEvent(c.Request.Context(), eventID, maxDistance)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}
