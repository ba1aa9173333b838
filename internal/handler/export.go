package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/partier/partier/internal/repository"
)

// ExportHandler streams CSV exports for the super-admin panel.
type ExportHandler struct {
	UserStore UserLister
	Sales     SalesStore
}

// UserLister is the export slice of the user repository.
type UserLister interface {
	List(ctx context.Context) ([]repository.User, error)
}

// SalesStore is the export slice of the ticket repository.
type SalesStore interface {
	ListSales(ctx context.Context) ([]repository.TicketSale, error)
}

func NewExportHandler(users UserLister, sales SalesStore) *ExportHandler {
	return &ExportHandler{UserStore: users, Sales: sales}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// attach sets the CSV content headers with a timestamped filename.
func attach(c echo.Context, prefix string) {
	name := fmt.Sprintf("%s-%s.csv", prefix, time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
}

// Users handles GET /api/export/users.
func (h *ExportHandler) Users(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.UserStore.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
	}
	if len(users) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no users to export"})
	}

	attach(c, "users")
	c.Response().WriteHeader(http.StatusOK)
	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{"ID", "Username", "Email", "Full Name", "Is Organizer", "Is Super Admin"}); err != nil {
		return err
	}
	for _, u := range users {
		rec := []string{
			strconv.FormatUint(u.ID, 10),
			u.Username,
			u.Email,
			u.FullName,
			yesNo(u.IsOrganizer),
			yesNo(u.IsSuperAdmin),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Tickets handles GET /api/export/tickets.  Names missing because the
// joined row was deleted degrade to "Unknown <id>" so the sale still
// appears in the books.
func (h *ExportHandler) Tickets(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sales, err := h.Sales.ListSales(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch ticket sales"})
	}
	if len(sales) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no tickets to export"})
	}

	attach(c, "tickets")
	c.Response().WriteHeader(http.StatusOK)
	w := csv.NewWriter(c.Response())
	header := []string{"ID", "Reference Number", "User ID", "User Name", "Event ID", "Event Name",
		"Ticket Type ID", "Ticket Type", "Price", "Purchase Date", "Status"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, s := range sales {
		userName := s.UserName
		if userName == "" {
			userName = "Unknown " + strconv.FormatUint(s.UserID, 10)
		}
		eventName := s.EventName
		if eventName == "" {
			eventName = "Unknown " + strconv.FormatUint(s.EventID, 10)
		}
		typeName := s.TicketTypeName
		if typeName == "" {
			typeName = "Unknown " + strconv.FormatUint(s.TicketTypeID, 10)
		}
		rec := []string{
			strconv.FormatUint(s.TicketID, 10),
			s.ReferenceNumber,
			strconv.FormatUint(s.UserID, 10),
			userName,
			strconv.FormatUint(s.EventID, 10),
			eventName,
			strconv.FormatUint(s.TicketTypeID, 10),
			typeName,
			"$" + s.Price.StringFixed(2),
			s.PurchaseDate.Format("2006-01-02 15:04:05"),
			"Issued",
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
