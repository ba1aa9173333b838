package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireOrganizer aborts requests whose principal lacks the organizer
// flag with 403 Forbidden.  It assumes LoadSession ran earlier; anonymous
// requests are rejected here too so the gate is safe even without
// RequireAuth in front of it.
func RequireOrganizer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if !p.IsOrganizer {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden - requires organizer role"})
			}
			return next(c)
		}
	}
}

// RequireSuperAdmin aborts requests whose principal lacks the super-admin
// flag with 403 Forbidden.
func RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if !p.IsSuperAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden - requires super admin role"})
			}
			return next(c)
		}
	}
}
