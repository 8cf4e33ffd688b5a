package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econavix/internal/models"
)

// LocationUpdate is what the page pushes from the browser geolocation API.
// Error is set instead of the coordinates when the browser reports a failure.
type LocationUpdate struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

// HandleGetLocation handles GET /api/v1/location
func (h *Handler) HandleGetLocation(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tracker.Snapshot())
}

// HandlePushLocation handles PUT /api/v1/location
func (h *Handler) HandlePushLocation(c *gin.Context) {
	if h.Location == nil {
		h.writeError(c, http.StatusConflict, "STATIC_LOCATION", "Location is fixed by configuration", nil)
		return
	}

	var req LocationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "Invalid request body")
		return
	}

	if req.Error != "" {
		h.log().Info("location: browser reported failure", zap.String("error", req.Error))
		h.Location.Fail(req.Error)
		c.JSON(http.StatusAccepted, h.Tracker.Snapshot())
		return
	}

	if req.Lat == nil || req.Lng == nil {
		h.handleValidationError(c, "lat and lng are required")
		return
	}
	if err := h.Location.Push(models.Coordinates{Lat: *req.Lat, Lng: *req.Lng}); err != nil {
		h.handleValidationError(c, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, h.Tracker.Snapshot())
}
