// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partier/partier/internal/handler"
	"github.com/partier/partier/internal/middleware"
)

// Handlers bundles every handler the API mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Events     *handler.EventHandler
	Types      *handler.TicketTypeHandler
	Performers *handler.PerformerHandler
	Tickets    *handler.TicketHandler
	Scan       *handler.ScanHandler
	Admin      *handler.AdminHandler
	Export     *handler.ExportHandler
}

// Middlewares carries the cross-cutting middleware built in main.  Cache and
// RateLimit may be pass-throughs when Redis is degraded.
type Middlewares struct {
	LoadSession echo.MiddlewareFunc
	Cache       echo.MiddlewareFunc
	RateLimit   echo.MiddlewareFunc
}

// Register mounts the full API surface on the Echo instance.
func Register(e *echo.Echo, h Handlers, mw Middlewares) {
	e.Use(mw.LoadSession)

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	// Public catalog and ticket lookups.  Anonymous responses are served
	// from the Redis cache.
	catalog := api.Group("", mw.Cache)
	catalog.GET("/events", h.Events.List)
	catalog.GET("/events/featured", h.Events.Featured)
	catalog.GET("/events/:id", h.Events.Get)
	catalog.GET("/events/:id/ticket-types", h.Types.ListByEvent)
	catalog.GET("/events/:id/performers", h.Performers.ListByEvent)
	catalog.GET("/ticket-types/:id", h.Types.Get)

	// Ticket reads stay uncached: a fresh row matters more at the door than
	// saving a primary-key lookup.
	api.GET("/tickets/:id", h.Tickets.Get)
	api.GET("/tickets/reference/:reference", h.Tickets.ByReference)
	api.GET("/tickets/reference/:reference/confirmation", h.Tickets.Confirmation)
	api.GET("/tickets/reference/:reference/qr", h.Tickets.QR)
	api.POST("/scan", h.Scan.Validate)

	// Session endpoints.  Login and register sit behind the rate limiter to
	// slow credential stuffing and signup floods.
	api.POST("/register", h.Auth.Register, mw.RateLimit)
	api.POST("/login", h.Auth.Login, mw.RateLimit)
	api.POST("/logout", h.Auth.Logout)
	api.GET("/user", h.Auth.Me)

	// Ticket purchase and wallet, authenticated.
	user := api.Group("", middleware.RequireAuth())
	user.POST("/tickets", h.Tickets.Purchase, mw.RateLimit)
	user.GET("/tickets/user/:userId", h.Tickets.ByUser)

	// Organizer tooling: event management, sales views, exports.
	org := api.Group("", middleware.RequireOrganizer())
	org.GET("/tickets/all", h.Tickets.All)
	org.GET("/organizer/:id/events", h.Events.ByOrganizer)
	org.POST("/events", h.Events.Create)
	org.PUT("/events/:id", h.Events.Update)
	org.DELETE("/events/:id", h.Events.Delete)
	org.POST("/ticket-types", h.Types.Create)
	org.PUT("/ticket-types/:id", h.Types.Update)
	org.POST("/performers", h.Performers.Create)
	org.GET("/export/users", h.Export.Users)
	org.GET("/export/tickets", h.Export.Tickets)

	// Super-admin panel: user management.
	admin := api.Group("", middleware.RequireSuperAdmin())
	admin.GET("/users", h.Admin.ListUsers)
	admin.POST("/organizers", h.Admin.CreateOrganizer)
	admin.PATCH("/users/:id", h.Admin.UpdateUser)
	admin.PUT("/users/:id/organizer-status", h.Admin.SetOrganizerStatus)
}
