package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/monitoring"
	"github.com/partier/partier/internal/reference"
	"github.com/partier/partier/internal/repository"
	"github.com/partier/partier/internal/scanner"
)

// ScanHandler validates door-entry scans.  The same policy drives the
// on-device scan session; this endpoint is the server-side half used by
// organizer terminals posting decoded payloads.
type ScanHandler struct {
	Tickets TicketStore

	// now is swapped in tests to pin the validation clock.
	now func() time.Time
}

func NewScanHandler(tickets TicketStore) *ScanHandler {
	return &ScanHandler{Tickets: tickets, now: time.Now}
}

type scanReq struct {
	ReferenceNumber string `json:"referenceNumber"`
}

type scanResp struct {
	Status string             `json:"status"`
	Ticket *repository.Ticket `json:"ticket,omitempty"`
}

// Validate handles POST /api/scan.  A malformed reference is rejected
// before touching storage; everything else funnels into one valid/invalid
// outcome for the operator.
func (h *ScanHandler) Validate(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid scan data"})
	}
	if !reference.Valid(req.ReferenceNumber) {
		monitoring.TrackScan("invalid")
		return c.JSON(http.StatusOK, scanResp{Status: string(scanner.StateInvalid)})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lookup := func(ctx context.Context, code string) (repository.Ticket, error) {
		return h.Tickets.GetByReference(ctx, code)
	}
	state, t, _ := scanner.Check(ctx, lookup, req.ReferenceNumber, h.now())

	resp := scanResp{Status: string(state)}
	if state == scanner.StateValid {
		monitoring.TrackScan("valid")
		resp.Ticket = &t
	} else {
		monitoring.TrackScan("invalid")
	}
	return c.JSON(http.StatusOK, resp)
}
