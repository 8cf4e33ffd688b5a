package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econavix/internal/geocoding"
)

// HandleGeocode handles GET /api/v1/geocode
func (h *Handler) HandleGeocode(c *gin.Context) {
	address := c.Query("address")
	if !geocoding.ValidateAddress(address) {
		h.handleValidationError(c, "Please enter a complete address")
		return
	}

	result, err := h.Resolver.Geocode(c.Request.Context(), address)
	if err != nil {
		var gerr *geocoding.ErrGeocodingFailed
		switch {
		case errors.Is(err, geocoding.ErrAddressNotFound):
			h.writeError(c, http.StatusUnprocessableEntity, "GEOCODING_FAILED", "Address not found", nil)
		case errors.As(err, &gerr):
			h.log().Warn("geocode: provider error", zap.String("address", address), zap.Error(err))
			h.writeError(c, http.StatusBadGateway, "UPSTREAM_FAILED", "Geocoding service unavailable", nil)
		default:
			h.handleInternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleReverseGeocode handles GET /api/v1/reverse-geocode. It always answers
// 200; failures come back as one of the placeholder addresses.
func (h *Handler) HandleReverseGeocode(c *gin.Context) {
	lat := parseCoordinate(c.Query("lat"))
	lng := parseCoordinate(c.Query("lon"))
	if c.Query("lon") == "" {
		lng = parseCoordinate(c.Query("lng"))
	}

	address := h.Resolver.ReverseGeocode(c.Request.Context(), lat, lng)
	c.JSON(http.StatusOK, gin.H{"address": address})
}

func parseCoordinate(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
