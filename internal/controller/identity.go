package controller

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GFRDINDIA/Helper/internal/auth"
)

const (
	userIDHeader       = "X-User-Id"
	capabilitiesHeader = "X-User-Capabilities"

	callerContextKey = "caller"
)

// IdentityMiddleware lifts the gateway-issued identity headers into the
// caller capability set. The gateway has already authenticated the
// request; nothing here validates credentials.
func IdentityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawID := c.Request().Header.Get(userIDHeader)
			if rawID == "" {
				return next(c)
			}

			userID, err := uuid.Parse(rawID)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{"Malformed identity headers"})
			}

			var caps []auth.Capability
			for _, raw := range strings.Split(c.Request().Header.Get(capabilitiesHeader), ",") {
				if raw = strings.TrimSpace(raw); raw != "" {
					caps = append(caps, auth.Capability(strings.ToUpper(raw)))
				}
			}

			c.Set(callerContextKey, auth.NewUser(userID, caps...))

			return next(c)
		}
	}
}

// callerFromContext returns the authenticated caller, or false for an
// anonymous request.
func callerFromContext(c echo.Context) (auth.User, bool) {
	caller, ok := c.Get(callerContextKey).(auth.User)
	return caller, ok
}

func requireCaller(c echo.Context) (auth.User, error) {
	caller, ok := callerFromContext(c)
	if !ok {
		return auth.User{}, c.JSON(http.StatusUnauthorized, errorResponse{"Identity headers are required"})
	}

	return caller, nil
}
