package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/middleware"
	"github.com/partier/partier/internal/repository"
)

// EventHandler serves the public catalog reads and the organizer-only
// event management endpoints.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(events *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: events}
}

// eventReq is the write payload for create and update.
type eventReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Featured    bool      `json:"featured"`
	Tags        []string  `json:"tags"`
}

func (r eventReq) validate() string {
	switch {
	case r.Title == "":
		return "title is required"
	case r.Description == "":
		return "description is required"
	case r.ImageURL == "":
		return "imageUrl is required"
	case r.Date.IsZero():
		return "date is required"
	case r.Location == "":
		return "location is required"
	case r.Address == "":
		return "address is required"
	}
	return ""
}

// pathID parses a numeric :id style path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// List handles GET /api/events.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.Events.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch events"})
	}
	return c.JSON(http.StatusOK, events)
}

// Featured handles GET /api/events/featured.
func (h *EventHandler) Featured(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.Events.ListFeatured(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch featured events"})
	}
	return c.JSON(http.StatusOK, events)
}

// Get handles GET /api/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	return c.JSON(http.StatusOK, event)
}

// Create handles POST /api/events.  The organizer id is taken from the
// session, never from the payload.
func (h *EventHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event data"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	e := repository.Event{
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Date:          req.Date,
		Location:      req.Location,
		Address:       req.Address,
		OrganizedByID: p.UserID,
		Featured:      req.Featured,
		Tags:          req.Tags,
	}
	if err := h.Events.Create(ctx, &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, e)
}

// Update handles PUT /api/events/:id.
func (h *EventHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event data"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	existing, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	existing.Title = req.Title
	existing.Description = req.Description
	existing.ImageURL = req.ImageURL
	existing.Date = req.Date
	existing.Location = req.Location
	existing.Address = req.Address
	existing.Featured = req.Featured
	existing.Tags = req.Tags
	if err := h.Events.Update(ctx, &existing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
	}
	return c.JSON(http.StatusOK, existing)
}

// Delete handles DELETE /api/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Events.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ByOrganizer handles GET /api/organizer/:id/events.
func (h *EventHandler) ByOrganizer(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid organizer id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	events, err := h.Events.ListByOrganizer(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch organizer events"})
	}
	return c.JSON(http.StatusOK, events)
}
