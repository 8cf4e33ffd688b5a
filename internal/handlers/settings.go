package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econavix/internal/models"
)

// UpdateSettingsRequest carries the fields to change; omitted fields are kept
type UpdateSettingsRequest struct {
	Theme    *models.Theme `json:"theme"`
	UseMiles *bool         `json:"use_miles"`
}

// HandleGetSettings handles GET /api/v1/settings
func (h *Handler) HandleGetSettings(c *gin.Context) {
	settings, err := h.Store.Settings().Get(c.Request.Context())
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// HandleUpdateSettings handles PUT /api/v1/settings
func (h *Handler) HandleUpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleValidationError(c, "Invalid request body")
		return
	}
	if req.Theme != nil && !req.Theme.Valid() {
		h.handleValidationError(c, "Theme must be light or dark")
		return
	}

	settings, err := h.Store.Settings().Modify(c.Request.Context(), func(s *models.Settings) {
		if req.Theme != nil {
			s.Theme = *req.Theme
		}
		if req.UseMiles != nil {
			s.UseMiles = *req.UseMiles
		}
	})
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	h.log().Info("settings updated", zap.String("theme", string(settings.Theme)), zap.Bool("use_miles", settings.UseMiles))
	c.JSON(http.StatusOK, settings)
}

// HandleSetTheme handles PUT /api/v1/settings/theme. An empty body toggles
// the current theme; {"theme":"dark"} sets it.
func (h *Handler) HandleSetTheme(c *gin.Context) {
	var req struct {
		Theme models.Theme `json:"theme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.handleValidationError(c, "Invalid request body")
		return
	}
	if req.Theme != "" && !req.Theme.Valid() {
		h.handleValidationError(c, "Theme must be light or dark")
		return
	}

	settings, err := h.Store.Settings().Modify(c.Request.Context(), func(s *models.Settings) {
		if req.Theme == "" {
			s.Theme = s.Theme.Toggle()
		} else {
			s.Theme = req.Theme
		}
	})
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}
