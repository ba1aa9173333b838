package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/partier/partier/internal/middleware"
	"github.com/partier/partier/internal/monitoring"
	"github.com/partier/partier/internal/pricing"
	"github.com/partier/partier/internal/queue"
	"github.com/partier/partier/internal/repository"
	queue_publisher "github.com/partier/partier/internal/service"
)

// TicketStore is the slice of the ticket repository the handler needs.
// Declared here so tests can substitute an in-memory fake.
type TicketStore interface {
	Issue(ctx context.Context, t *repository.Ticket) error
	GetByID(ctx context.Context, id uint64) (repository.Ticket, error)
	GetByReference(ctx context.Context, ref string) (repository.Ticket, error)
	ListByUser(ctx context.Context, userID uint64) ([]repository.Ticket, error)
	ListAll(ctx context.Context) ([]repository.Ticket, error)
}

// EventStore resolves events for purchase validation and confirmations.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (repository.Event, error)
}

// TicketTypeStore resolves ticket types for purchase validation and
// confirmations.
type TicketTypeStore interface {
	GetByID(ctx context.Context, id uint64) (repository.TicketType, error)
}

// TicketHandler serves the purchase flow and ticket reads.
type TicketHandler struct {
	Tickets TicketStore
	Events  EventStore
	Types   TicketTypeStore

	// Publish pushes the issued event to the broker.  Best effort: a broker
	// outage never fails a purchase.  Nil disables publishing (tests).
	Publish func(ctx context.Context, ev queue.TicketIssuedEvent) error
}

func NewTicketHandler(tickets TicketStore, events EventStore, types TicketTypeStore) *TicketHandler {
	return &TicketHandler{
		Tickets: tickets,
		Events:  events,
		Types:   types,
		Publish: queue_publisher.PublishTicketIssued,
	}
}

type purchaseReq struct {
	EventID       uint64          `json:"eventId"`
	TicketTypeID  uint64          `json:"ticketTypeId"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	PaymentMethod string          `json:"paymentMethod"`
}

// paymentDetails is the breakdown stored on the ticket row.  The server
// computes every amount itself; the client total is only checked, never
// trusted.
type paymentDetails struct {
	Method        string          `json:"method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	Tax           decimal.Decimal `json:"tax"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId"`
}

// Purchase handles POST /api/tickets: validates the order, recomputes the
// price server-side, and issues the ticket atomically against inventory.
func (h *TicketHandler) Purchase(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		monitoring.TrackIssueFailure("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase data"})
	}
	if req.EventID == 0 || req.TicketTypeID == 0 || req.Quantity < 1 {
		monitoring.TrackIssueFailure("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid purchase data"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	tt, err := h.Types.GetByID(ctx, req.TicketTypeID)
	if err != nil {
		if err == repository.ErrNotFound {
			monitoring.TrackIssueFailure("validation")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		monitoring.TrackIssueFailure("storage")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket type"})
	}
	if tt.EventID != req.EventID {
		monitoring.TrackIssueFailure("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket type does not belong to event"})
	}
	event, err := h.Events.GetByID(ctx, req.EventID)
	if err != nil {
		if err == repository.ErrNotFound {
			monitoring.TrackIssueFailure("validation")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		monitoring.TrackIssueFailure("storage")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}

	subtotal := pricing.Subtotal(tt.Price, req.Quantity)
	total := pricing.Total(subtotal)
	if !req.TotalPrice.Equal(total) {
		monitoring.TrackIssueFailure("validation")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total price mismatch"})
	}

	method := req.PaymentMethod
	if method == "" {
		method = "card"
	}
	details, err := json.Marshal(paymentDetails{
		Method:        method,
		Subtotal:      subtotal,
		ServiceFee:    pricing.ServiceFee(subtotal),
		Tax:           pricing.Tax(subtotal),
		Status:        "completed",
		TransactionID: uuid.NewString(),
	})
	if err != nil {
		monitoring.TrackIssueFailure("storage")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue ticket"})
	}

	t := repository.Ticket{
		UserID:         p.UserID,
		EventID:        req.EventID,
		TicketTypeID:   req.TicketTypeID,
		Quantity:       req.Quantity,
		TotalPrice:     total,
		PaymentDetails: details,
	}
	if err := h.Tickets.Issue(ctx, &t); err != nil {
		switch err {
		case repository.ErrSoldOut:
			monitoring.TrackIssueFailure("sold_out")
			return c.JSON(http.StatusConflict, echo.Map{"error": "not enough tickets available"})
		case repository.ErrReferenceExhausted:
			monitoring.TrackIssueFailure("reference_exhausted")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not allocate reference number"})
		default:
			monitoring.TrackIssueFailure("storage")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue ticket"})
		}
	}
	monitoring.TrackTicketIssued()

	if h.Publish != nil {
		_ = h.Publish(ctx, queue.TicketIssuedEvent{
			TicketID:        t.ID,
			ReferenceNumber: t.ReferenceNumber,
			UserID:          t.UserID,
			EventID:         t.EventID,
			EventTitle:      event.Title,
			TicketTypeID:    t.TicketTypeID,
			TicketTypeName:  tt.Name,
			Quantity:        t.Quantity,
			TotalPrice:      t.TotalPrice.StringFixed(2),
			PurchasedAt:     t.PurchaseDate.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return c.JSON(http.StatusCreated, t)
}

// Get handles GET /api/tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
	}
	return c.JSON(http.StatusOK, t)
}

// ByReference handles GET /api/tickets/reference/:reference, the scan
// lookup.  Unknown references are a routine outcome at the door, so they
// map to a clean 404 rather than an error page.
func (h *TicketHandler) ByReference(c echo.Context) error {
	ref := c.Param("reference")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference number required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.GetByReference(ctx, ref)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
	}
	return c.JSON(http.StatusOK, t)
}

// confirmationResp bundles everything the confirmation screen renders.
type confirmationResp struct {
	Ticket     repository.Ticket     `json:"ticket"`
	Event      repository.Event      `json:"event"`
	TicketType repository.TicketType `json:"ticketType"`
}

// Confirmation handles GET /api/tickets/reference/:reference/confirmation.
// Any missing leg of the join is a 404: a confirmation with holes is worse
// than none.
func (h *TicketHandler) Confirmation(c echo.Context) error {
	ref := c.Param("reference")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference number required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.GetByReference(ctx, ref)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
	}
	event, err := h.Events.GetByID(ctx, t.EventID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	tt, err := h.Types.GetByID(ctx, t.TicketTypeID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket type"})
	}
	return c.JSON(http.StatusOK, confirmationResp{Ticket: t, Event: event, TicketType: tt})
}

// ByUser handles GET /api/tickets/user/:userId.  Users read their own
// wallet; organizers can pull any user's tickets for support.
func (h *TicketHandler) ByUser(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if userID != p.UserID && !p.IsOrganizer && !p.IsSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Tickets.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tickets"})
	}
	return c.JSON(http.StatusOK, tickets)
}

// All handles GET /api/tickets/all (organizer only, enforced by the
// router).
func (h *TicketHandler) All(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Tickets.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch tickets"})
	}
	return c.JSON(http.StatusOK, tickets)
}

// QR handles GET /api/tickets/reference/:reference/qr, returning a PNG
// encoding the reference number.  The payload is exactly the string the
// door scanner expects back.
func (h *TicketHandler) QR(c echo.Context) error {
	ref := c.Param("reference")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference number required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.GetByReference(ctx, ref)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket"})
	}
	png, err := qrcode.Encode(t.ReferenceNumber, qrcode.Medium, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to render qr code"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
