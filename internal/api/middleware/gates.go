package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAnonymous refuses signed-in callers and points them to the home page.
func RequireAnonymous() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) != "" {
				c.Response().Header().Set(echo.HeaderLocation, "/")
				return c.JSON(http.StatusConflict, map[string]string{"error": "already signed in"})
			}
			return next(c)
		}
	}
}

// RequireAuthenticated refuses anonymous callers.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// RequireStaff lets only staff sessions through.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !IsStaff(c) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
