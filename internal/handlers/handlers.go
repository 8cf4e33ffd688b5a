package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econavix/internal/database"
	"econavix/internal/geocoding"
	"econavix/internal/location"
	"econavix/internal/logging"
	"econavix/internal/planner"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// TemplateSet holds base templates and page templates separately
type TemplateSet struct {
	Base  *template.Template
	Pages map[string]string
	Funcs template.FuncMap
}

// AddressResolver is the forward and reverse geocoding the API exposes
type AddressResolver interface {
	Geocode(ctx context.Context, address string) (*geocoding.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) string
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	Store     database.DataStore
	Resolver  AddressResolver
	Planner   *planner.Planner
	Tracker   *location.Tracker
	Location  *location.PushSource // nil when the position comes from config
	Templates *TemplateSet
	Logger    *zap.Logger
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (h *Handler) log() *zap.Logger {
	return logging.OrNop(h.Logger).Named("http")
}

// writeError writes a JSON error response
func (h *Handler) writeError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// handleNotFound handles 404 errors
func (h *Handler) handleNotFound(c *gin.Context, message string) {
	h.writeError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// handleValidationError handles 400 errors
func (h *Handler) handleValidationError(c *gin.Context, message string) {
	h.writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleInternalError handles 500 errors
func (h *Handler) handleInternalError(c *gin.Context, err error) {
	h.log().Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	h.writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// handlePlanError maps the planner's error kinds onto HTTP statuses
func (h *Handler) handlePlanError(c *gin.Context, perr *planner.PlanError) {
	status := http.StatusInternalServerError
	code := "PLAN_FAILED"
	switch perr.Kind {
	case planner.KindInvalidInput:
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case planner.KindNotFound:
		status, code = http.StatusUnprocessableEntity, "GEOCODING_FAILED"
	case planner.KindTransportError:
		status, code = http.StatusBadGateway, "UPSTREAM_FAILED"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Kind:    string(perr.Kind),
			Reason:  string(perr.Reason),
			Message: perr.Message,
		},
	})
}

// checkNotFound checks if an error is a not found error
func (h *Handler) checkNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}

// renderTemplate renders a page inside layout.html
func (h *Handler) renderTemplate(c *gin.Context, name string, data any) {
	if h.Templates == nil {
		h.handleInternalError(c, errors.New("templates not loaded"))
		return
	}

	// Always clone to avoid "cannot Clone after executed" error
	tmpl, err := h.Templates.Base.Clone()
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	pageContent, ok := h.Templates.Pages[name]
	if !ok {
		h.handleInternalError(c, errors.New("unknown page template "+name))
		return
	}
	if _, err := tmpl.New(name).Parse(pageContent); err != nil {
		h.handleInternalError(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := tmpl.ExecuteTemplate(c.Writer, "layout.html", data); err != nil {
		h.log().Error("template execute failed", zap.String("template", name), zap.Error(err))
	}
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(c *gin.Context) {
	status := "ok"
	dbStatus := "connected"

	if err := h.Store.HealthCheck(c.Request.Context()); err != nil {
		h.log().Warn("health check failed", zap.Error(err))
		status = "degraded"
		dbStatus = "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"version":  Version,
		"database": dbStatus,
	})
}
