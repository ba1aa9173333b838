package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/session"
)

// principalKey is the echo context key under which the authenticated
// principal is stored.
const principalKey = "principal"

// LoadSession resolves the session cookie, if any, and attaches the
// principal to the request context.  It never rejects a request: routes
// that need authentication stack RequireAuth on top, while public routes
// still see the principal when one exists (e.g. for rate-limit keying).
func LoadSession(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			p, err := store.Get(c.Request().Context(), cookie.Value)
			if err != nil {
				// Unknown or expired session: clear the stale cookie and
				// continue anonymously.
				if err == session.ErrNotFound {
					c.SetCookie(session.Cookie("", 0, false))
				}
				return next(c)
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// Principal extracts the authenticated principal from the context.  The
// second return value is false for anonymous requests.
func Principal(c echo.Context) (session.Principal, bool) {
	p, ok := c.Get(principalKey).(session.Principal)
	return p, ok
}

// RequireAuth aborts anonymous requests with 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := Principal(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
