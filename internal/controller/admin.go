package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/GFRDINDIA/Helper/internal/service"
)

type adminRoutes struct {
	taskService service.Task
}

func newAdminRoutes(g *echo.Group, taskService service.Task) {
	r := &adminRoutes{taskService: taskService}

	g.GET("/stats", r.getStats)
}

func (r *adminRoutes) getStats(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	stats, err := r.taskService.GetStats(c.Request().Context(), caller)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
