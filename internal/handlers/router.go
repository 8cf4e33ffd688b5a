package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the pages and the JSON API on r
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.HandleIndexPage)
	r.GET("/history", h.HandleHistoryPage)

	api := r.Group("/api/v1")
	api.GET("/health", h.HandleHealthCheck)

	api.POST("/routes/plan", h.HandlePlanRoute)
	api.GET("/routes/current", h.HandleGetCurrentRoute)
	api.DELETE("/routes/current", h.HandleClearRoute)
	api.GET("/routes/current.geojson", h.HandleRouteGeoJSON)

	api.GET("/geocode", h.HandleGeocode)
	api.GET("/reverse-geocode", h.HandleReverseGeocode)

	api.GET("/location", h.HandleGetLocation)
	api.PUT("/location", h.HandlePushLocation)

	api.GET("/settings", h.HandleGetSettings)
	api.PUT("/settings", h.HandleUpdateSettings)
	api.PUT("/settings/theme", h.HandleSetTheme)

	api.GET("/plans", h.HandleListPlans)
	api.DELETE("/plans", h.HandleClearPlans)
	api.GET("/plans/:id", h.HandleGetPlan)
}
