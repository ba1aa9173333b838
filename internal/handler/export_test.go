package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partier/partier/internal/repository"
)

type fakeUserLister []repository.User

func (f fakeUserLister) List(context.Context) ([]repository.User, error) { return f, nil }

type fakeSalesStore []repository.TicketSale

func (f fakeSalesStore) ListSales(context.Context) ([]repository.TicketSale, error) { return f, nil }

func TestExportUsersCSV(t *testing.T) {
	h := NewExportHandler(fakeUserLister{
		{ID: 1, Username: "ava", Email: "ava@club.io", FullName: "Ava Stone", IsOrganizer: true},
		{ID: 2, Username: "ben", Email: "ben@club.io", FullName: "Ben Cole", IsSuperAdmin: true},
	}, fakeSalesStore{})

	c, rec := newJSONCtx(t, http.MethodGet, "/api/export/users", nil)
	require.NoError(t, h.Users(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Username", "Email", "Full Name", "Is Organizer", "Is Super Admin"}, rows[0])
	assert.Equal(t, []string{"1", "ava", "ava@club.io", "Ava Stone", "Yes", "No"}, rows[1])
	assert.Equal(t, []string{"2", "ben", "ben@club.io", "Ben Cole", "No", "Yes"}, rows[2])
}

func TestExportUsersEmpty(t *testing.T) {
	h := NewExportHandler(fakeUserLister{}, fakeSalesStore{})
	c, rec := newJSONCtx(t, http.MethodGet, "/api/export/users", nil)
	require.NoError(t, h.Users(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportTicketsCSV(t *testing.T) {
	purchased := time.Date(2025, 6, 1, 20, 30, 0, 0, time.UTC)
	h := NewExportHandler(fakeUserLister{}, fakeSalesStore{
		{
			TicketID:        5,
			ReferenceNumber: "TIX10001",
			UserID:          7,
			UserName:        "Ava Stone",
			EventID:         1,
			EventName:       "Neon Nights",
			TicketTypeID:    10,
			TicketTypeName:  "VIP",
			Price:           decimal.RequireFromString("50.00"),
			PurchaseDate:    purchased,
		},
		{
			// Event deleted after the sale: the row survives with a fallback name.
			TicketID:        6,
			ReferenceNumber: "TIX10002",
			UserID:          8,
			UserName:        "",
			EventID:         2,
			EventName:       "",
			TicketTypeID:    11,
			TicketTypeName:  "",
			Price:           decimal.RequireFromString("25.50"),
			PurchaseDate:    purchased,
		},
	})

	c, rec := newJSONCtx(t, http.MethodGet, "/api/export/tickets", nil)
	require.NoError(t, h.Tickets(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"5", "TIX10001", "7", "Ava Stone", "1", "Neon Nights",
		"10", "VIP", "$50.00", "2025-06-01 20:30:00", "Issued",
	}, rows[1])
	assert.Equal(t, []string{
		"6", "TIX10002", "8", "Unknown 8", "2", "Unknown 2",
		"11", "Unknown 11", "$25.50", "2025-06-01 20:30:00", "Issued",
	}, rows[2])
}

func TestExportTicketsEmpty(t *testing.T) {
	h := NewExportHandler(fakeUserLister{}, fakeSalesStore{})
	c, rec := newJSONCtx(t, http.MethodGet, "/api/export/tickets", nil)
	require.NoError(t, h.Tickets(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
