package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partier/partier/internal/reference"
)

// dupRefErr mimics the MySQL duplicate-key error raised when a generated
// reference collides with an existing ticket.
var dupRefErr = errors.New("Error 1062 (23000): Duplicate entry 'TIX12345' for key 'tickets.uq_tickets_reference'")

func newTicketOrder() *Ticket {
	return &Ticket{
		UserID:         7,
		EventID:        1,
		TicketTypeID:   10,
		Quantity:       2,
		TotalPrice:     decimal.RequireFromString("117.00"),
		PaymentDetails: json.RawMessage(`{"status":"completed"}`),
	}
}

func ticketRows(ref string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "event_id", "ticket_type_id", "quantity",
		"total_price", "purchase_date", "reference_number", "payment_details",
	}).AddRow(
		42, 7, 1, 10, 2,
		"117.00", time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC), ref, []byte(`{"status":"completed"}`),
	)
}

func TestIssueSoldOut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	mock.ExpectBegin()
	// Conditional decrement touches no row: not enough inventory.
	mock.ExpectExec("UPDATE ticket_types SET available").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Issue(context.Background(), newTicketOrder())
	assert.Equal(t, ErrSoldOut, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRetriesAfterReferenceCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ticket_types SET available").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// First insert collides, the retry draws a fresh reference and lands.
	mock.ExpectExec("INSERT INTO tickets").WillReturnError(dupRefErr)
	mock.ExpectExec("INSERT INTO tickets").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT (.+) FROM tickets WHERE id").
		WillReturnRows(ticketRows("TIX54321"))
	mock.ExpectCommit()

	order := newTicketOrder()
	require.NoError(t, repo.Issue(context.Background(), order))
	assert.Equal(t, uint64(42), order.ID)
	assert.True(t, reference.Valid(order.ReferenceNumber))
	assert.Equal(t, time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC), order.PurchaseDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueReferenceExhausted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ticket_types SET available").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Every attempt collides; the loop must give up instead of spinning.
	for i := 0; i < maxReferenceAttempts; i++ {
		mock.ExpectExec("INSERT INTO tickets").WillReturnError(dupRefErr)
	}
	mock.ExpectRollback()

	err = repo.Issue(context.Background(), newTicketOrder())
	assert.Equal(t, ErrReferenceExhausted, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueInsertFailureIsNotRetried(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTicketRepo(db)

	boom := errors.New("Error 1366 (HY000): Incorrect integer value")
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ticket_types SET available").
		WithArgs(2, 10, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tickets").WillReturnError(boom)
	mock.ExpectRollback()

	err = repo.Issue(context.Background(), newTicketOrder())
	assert.Equal(t, boom, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
