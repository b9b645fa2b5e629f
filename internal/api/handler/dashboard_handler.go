package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/core/ports"
)

type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview returns headline counts, the caller's projects and recent activity.
//
// @Summary      Dashboard overview
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.Dashboard
// @Failure      401  {object}  errorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Overview(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	d, err := h.service.Overview(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Stats returns status and priority breakdowns plus task completion.
//
// @Summary      Dashboard statistics
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DetailedStats
// @Failure      401  {object}  errorResponse
// @Router       /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	s, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
