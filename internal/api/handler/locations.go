package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/vendorseo/internal/service"
)

// LocationHandler handles the city area registry.
type LocationHandler struct {
	locationService *service.LocationService
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// AddLocationRequest is the body of POST /api/locations.
type AddLocationRequest struct {
	City     string   `json:"city"`
	Category string   `json:"category"`
	Areas    []string `json:"areas"`
}

// AddAreas handles POST /api/locations.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *LocationHandler) AddAreas(c *gin.Context) {
	var req AddLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	rec, err := h.locationService.AddAreas(c.Request.Context(), req.City, req.Category, req.Areas)
	if err != nil {
		respondError(c, "Saving location", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"location": rec,
	})
}

// ListLocations handles GET /api/locations.
func (h *LocationHandler) ListLocations(c *gin.Context) {
	locations, err := h.locationService.List(c.Request.Context(), c.Query("city"), c.Query("category"))
	if err != nil {
		respondError(c, "Listing locations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": locations,
		"total":     len(locations),
	})
}
