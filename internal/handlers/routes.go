package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"econavix/internal/models"
	"econavix/internal/planner"
	"econavix/internal/present"
)

// PlanRequest is the body of POST /api/v1/routes/plan
type PlanRequest struct {
	Origin      string `json:"origin" form:"origin"`
	Destination string `json:"destination" form:"destination"`
}

// PlanResponse is returned for a successful plan
type PlanResponse struct {
	Generation uint64              `json:"generation"`
	Applied    bool                `json:"applied"`
	Result     *models.RouteResult `json:"result"`
	View       present.RouteView   `json:"view"`
}

// CurrentRouteResponse is the planner state plus its display model
type CurrentRouteResponse struct {
	State planner.State      `json:"state"`
	View  *present.RouteView `json:"view,omitempty"`
}

// HandlePlanRoute handles POST /api/v1/routes/plan
func (h *Handler) HandlePlanRoute(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBind(&req); err != nil {
		h.log().Info("plan: invalid body", zap.Error(err))
		h.handleValidationError(c, "Invalid request body")
		return
	}

	out := h.Planner.Plan(c.Request.Context(), req.Origin, req.Destination)
	if out.Err != nil {
		h.handlePlanError(c, out.Err)
		return
	}

	h.log().Info("plan: done",
		zap.Uint64("generation", out.Generation),
		zap.Bool("applied", out.Applied),
		zap.Int("points", len(out.Result.Route)),
	)

	c.JSON(http.StatusOK, PlanResponse{
		Generation: out.Generation,
		Applied:    out.Applied,
		Result:     out.Result,
		View:       present.NewRouteView(out.Result, h.useMiles(c)),
	})
}

// HandleGetCurrentRoute handles GET /api/v1/routes/current
func (h *Handler) HandleGetCurrentRoute(c *gin.Context) {
	state := h.Planner.State()
	resp := CurrentRouteResponse{State: state}
	if state.Result != nil {
		view := present.NewRouteView(state.Result, h.useMiles(c))
		resp.View = &view
	}
	c.JSON(http.StatusOK, resp)
}

// HandleClearRoute handles DELETE /api/v1/routes/current
func (h *Handler) HandleClearRoute(c *gin.Context) {
	h.Planner.ClearRoute()
	c.JSON(http.StatusOK, CurrentRouteResponse{State: h.Planner.State()})
}

// HandleRouteGeoJSON handles GET /api/v1/routes/current.geojson
func (h *Handler) HandleRouteGeoJSON(c *gin.Context) {
	state := h.Planner.State()
	if !state.Result.Drawable() {
		h.handleNotFound(c, "No route is displayed")
		return
	}

	fc := present.RouteGeoJSON(state.Result, state.Origin, state.Destination)
	data, err := json.Marshal(fc)
	if err != nil {
		h.handleInternalError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="route.geojson"`)
	c.Data(http.StatusOK, "application/geo+json", data)
}

// useMiles reads the unit preference, falling back to the default when the store fails
func (h *Handler) useMiles(c *gin.Context) bool {
	settings, err := h.Store.Settings().Get(c.Request.Context())
	if err != nil {
		h.log().Warn("failed to read settings", zap.Error(err))
		return models.DefaultSettings().UseMiles
	}
	return settings.UseMiles
}
