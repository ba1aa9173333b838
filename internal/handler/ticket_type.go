package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/partier/partier/internal/repository"
)

// TicketTypeHandler serves ticket-type reads and organizer-only writes.
type TicketTypeHandler struct {
	Types  *repository.TicketTypeRepo
	Events *repository.EventRepo
}

func NewTicketTypeHandler(types *repository.TicketTypeRepo, events *repository.EventRepo) *TicketTypeHandler {
	return &TicketTypeHandler{Types: types, Events: events}
}

type ticketTypeReq struct {
	EventID     uint64          `json:"eventId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   int             `json:"available"`
}

// ListByEvent handles GET /api/events/:id/ticket-types.
func (h *TicketTypeHandler) ListByEvent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	types, err := h.Types.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket types"})
	}
	return c.JSON(http.StatusOK, types)
}

// Get handles GET /api/ticket-types/:id.
func (h *TicketTypeHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Types.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket type"})
	}
	return c.JSON(http.StatusOK, t)
}

// Create handles POST /api/ticket-types.  The parent event must exist.
func (h *TicketTypeHandler) Create(c echo.Context) error {
	var req ticketTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type data"})
	}
	if req.EventID == 0 || req.Name == "" || req.Price.IsNegative() || req.Available < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type data"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Events.GetByID(ctx, req.EventID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	t := repository.TicketType{
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Available:   req.Available,
	}
	if err := h.Types.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ticket type"})
	}
	return c.JSON(http.StatusCreated, t)
}

// Update handles PUT /api/ticket-types/:id.  Organizers can edit copy,
// price and the inventory counter; the event binding is immutable.
func (h *TicketTypeHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type id"})
	}
	var req ticketTypeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type data"})
	}
	if req.Name == "" || req.Price.IsNegative() || req.Available < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket type data"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Types.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket type"})
	}
	t.Name = req.Name
	t.Description = req.Description
	t.Price = req.Price
	t.Available = req.Available
	if err := h.Types.Update(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update ticket type"})
	}
	return c.JSON(http.StatusOK, t)
}
