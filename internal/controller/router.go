package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/GFRDINDIA/Helper/internal/service"
)

func SetupRoutesHandlers(handler *echo.Echo, services *service.Services) {
	handler.Use(middleware.Recover())
	handler.Use(IdentityMiddleware())

	validate := validator.New(validator.WithRequiredStructEnabled())

	v1 := handler.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		bids := v1.Group("/bids")

		newTaskRoutes(tasks, services.Task, services.Search, validate)
		newBidRoutes(tasks, bids, services.Bid, validate)
		newAdminRoutes(v1.Group("/admin"), services.Task)
		newDiagnosticsRoutes(v1.Group("/diagnostics"), services.Diagnostics)
	}
}
