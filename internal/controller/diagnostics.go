package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/GFRDINDIA/Helper/internal/service"
)

type diagnosticsRoutes struct {
	diagnosticsService service.Diagnostics
}

func newDiagnosticsRoutes(g *echo.Group, diagnosticsService service.Diagnostics) {
	r := &diagnosticsRoutes{diagnosticsService: diagnosticsService}

	g.GET("/ping", r.ping)
}

func (r *diagnosticsRoutes) ping(c echo.Context) error {
	if err := r.diagnosticsService.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{"Database is unreachable"})
	}

	return c.NoContent(http.StatusOK)
}
