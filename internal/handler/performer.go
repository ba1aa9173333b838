package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/repository"
)

// PerformerHandler serves lineup reads and organizer-only performer
// creation.
type PerformerHandler struct {
	Performers *repository.PerformerRepo
	Events     *repository.EventRepo
}

func NewPerformerHandler(performers *repository.PerformerRepo, events *repository.EventRepo) *PerformerHandler {
	return &PerformerHandler{Performers: performers, Events: events}
}

type performerReq struct {
	EventID     uint64 `json:"eventId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Time        string `json:"time"`
	IsHeadliner bool   `json:"isHeadliner"`
}

// ListByEvent handles GET /api/events/:id/performers.
func (h *PerformerHandler) ListByEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	performers, err := h.Performers.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch performers"})
	}
	return c.JSON(http.StatusOK, performers)
}

// Create handles POST /api/performers.
func (h *PerformerHandler) Create(c echo.Context) error {
	var req performerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid performer data"})
	}
	if req.EventID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid performer data"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Events.GetByID(ctx, req.EventID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	p := repository.Performer{
		EventID:     req.EventID,
		Name:        req.Name,
		ImageURL:    req.ImageURL,
		Time:        req.Time,
		IsHeadliner: req.IsHeadliner,
	}
	if err := h.Performers.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create performer"})
	}
	return c.JSON(http.StatusCreated, p)
}
