package handlers

import (
	"github.com/gin-gonic/gin"

	"econavix/internal/location"
	"econavix/internal/models"
	"econavix/internal/planner"
	"econavix/internal/present"
)

// PageData contains common data for all pages
type PageData struct {
	Title      string
	ActivePage string
	Theme      models.Theme
	UseMiles   bool
}

// IndexPageData is the map page
type IndexPageData struct {
	PageData
	Location      location.Snapshot
	DefaultCenter models.Coordinates
	State         planner.State
	View          *present.RouteView
	PushLocation  bool
}

// HistoryPageData is the plan history page
type HistoryPageData struct {
	PageData
	Plans []models.PlanRecord
	Total int
}

func (h *Handler) pageData(c *gin.Context, title, active string) (PageData, error) {
	settings, err := h.Store.Settings().Get(c.Request.Context())
	if err != nil {
		return PageData{}, err
	}
	return PageData{
		Title:      title,
		ActivePage: active,
		Theme:      settings.Theme,
		UseMiles:   settings.UseMiles,
	}, nil
}

// HandleIndexPage handles GET /
func (h *Handler) HandleIndexPage(c *gin.Context) {
	base, err := h.pageData(c, "Plan a route", "home")
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	data := IndexPageData{
		PageData:      base,
		Location:      h.Tracker.Snapshot(),
		DefaultCenter: location.DefaultCenter,
		State:         h.Planner.State(),
		PushLocation:  h.Location != nil,
	}
	if data.State.Result != nil {
		view := present.NewRouteView(data.State.Result, base.UseMiles)
		data.View = &view
	}

	h.renderTemplate(c, "index.html", data)
}

// HandleHistoryPage handles GET /history
func (h *Handler) HandleHistoryPage(c *gin.Context) {
	base, err := h.pageData(c, "Plan history", "history")
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	plans, total, err := h.Store.Plans().List(c.Request.Context(), defaultPlanLimit, 0)
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	h.renderTemplate(c, "history.html", HistoryPageData{PageData: base, Plans: plans, Total: total})
}
