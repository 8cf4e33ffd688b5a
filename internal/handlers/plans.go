package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"econavix/internal/models"
)

const (
	defaultPlanLimit = 20
	maxPlanLimit     = 100
)

// PlanListResponse is one page of plan history
type PlanListResponse struct {
	Plans  []models.PlanRecord `json:"plans"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// HandleListPlans handles GET /api/v1/plans
func (h *Handler) HandleListPlans(c *gin.Context) {
	limit := queryInt(c, "limit", defaultPlanLimit)
	if limit <= 0 {
		limit = defaultPlanLimit
	}
	if limit > maxPlanLimit {
		limit = maxPlanLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	plans, total, err := h.Store.Plans().List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanListResponse{Plans: plans, Total: total, Limit: limit, Offset: offset})
}

// HandleGetPlan handles GET /api/v1/plans/:id
func (h *Handler) HandleGetPlan(c *gin.Context) {
	id := c.Param("id")
	plan, err := h.Store.Plans().GetByID(c.Request.Context(), id)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(c, "Plan not found")
			return
		}
		h.handleInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// HandleClearPlans handles DELETE /api/v1/plans
func (h *Handler) HandleClearPlans(c *gin.Context) {
	if err := h.Store.Plans().Clear(c.Request.Context()); err != nil {
		h.handleInternalError(c, err)
		return
	}
	h.log().Info("plan history cleared")
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
