package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partier/partier/internal/reference"
)

// Ticket mirrors the tickets table.  A ticket is immutable once issued: the
// only write path is Issue, and purchase_date is assigned by the database.
// PaymentDetails is an opaque JSON blob denormalizing the charge breakdown.
type Ticket struct {
	ID              uint64          `json:"id"`
	UserID          uint64          `json:"userId"`
	EventID         uint64          `json:"eventId"`
	TicketTypeID    uint64          `json:"ticketTypeId"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	PurchaseDate    time.Time       `json:"purchaseDate"`
	ReferenceNumber string          `json:"referenceNumber"`
	PaymentDetails  json.RawMessage `json:"paymentDetails"`
}

// TicketRepo manages persistence for tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying sql.DB for callers needing transaction control.
func (r *TicketRepo) DB() *sql.DB { return r.db }

const ticketCols = "id, user_id, event_id, ticket_type_id, quantity, total_price, purchase_date, reference_number, payment_details"

// maxReferenceAttempts bounds the regenerate-and-retry loop on reference
// collisions.  With ~90k possible references a handful of retries is enough
// until the keyspace is nearly full, at which point failing loudly beats
// spinning.
const maxReferenceAttempts = 5

// Issue atomically decrements the ticket type's inventory and inserts the
// ticket row in one transaction.  The reference number is generated here;
// on a duplicate-key violation a fresh reference is drawn, up to
// maxReferenceAttempts times.  Returns ErrSoldOut when the inventory check
// fails and ErrReferenceExhausted when no unique reference could be
// allocated.  On success the struct is populated with the stored row,
// including the DB-assigned purchase timestamp.
func (r *TicketRepo) Issue(ctx context.Context, t *Ticket) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Conditional decrement: the WHERE clause is the capacity check, so two
	// concurrent purchases of the last unit serialize on the row lock and
	// only one sees available >= quantity.
	res, err := tx.ExecContext(ctx,
		`UPDATE ticket_types SET available = available - ? WHERE id = ? AND available >= ?`,
		t.Quantity, t.TicketTypeID, t.Quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSoldOut
	}

	const ins = `INSERT INTO tickets (user_id, event_id, ticket_type_id, quantity, total_price, reference_number, payment_details)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	var ticketID int64
	inserted := false
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref, err := reference.New()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, ins,
			t.UserID, t.EventID, t.TicketTypeID, t.Quantity, t.TotalPrice, ref, []byte(t.PaymentDetails))
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				continue // reference collision, draw again
			}
			return err
		}
		ticketID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		t.ReferenceNumber = ref
		inserted = true
		break
	}
	if !inserted {
		return ErrReferenceExhausted
	}

	// Read the row back inside the transaction to pick up purchase_date.
	if err := scanTicket(tx.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE id = ?", ticketID).Scan, t); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func scanTicket(scan func(dest ...interface{}) error, t *Ticket) error {
	var raw []byte
	err := scan(&t.ID, &t.UserID, &t.EventID, &t.TicketTypeID, &t.Quantity,
		&t.TotalPrice, &t.PurchaseDate, &t.ReferenceNumber, &raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	t.PaymentDetails = json.RawMessage(raw)
	return nil
}

// GetByID retrieves a ticket by primary key.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (Ticket, error) {
	var t Ticket
	err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE id = ?", id).Scan, &t)
	return t, err
}

// GetByReference retrieves a ticket by its exact reference number.
func (r *TicketRepo) GetByReference(ctx context.Context, ref string) (Ticket, error) {
	var t Ticket
	err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE reference_number = ?", ref).Scan, &t)
	return t, err
}

// ListByUser returns a user's tickets, most recent purchase first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]Ticket, error) {
	return r.list(ctx, "SELECT "+ticketCols+" FROM tickets WHERE user_id = ? ORDER BY purchase_date DESC", userID)
}

// ListAll returns every ticket ordered by purchase date.
func (r *TicketRepo) ListAll(ctx context.Context) ([]Ticket, error) {
	return r.list(ctx, "SELECT "+ticketCols+" FROM tickets ORDER BY purchase_date DESC")
}

func (r *TicketRepo) list(ctx context.Context, query string, args ...interface{}) ([]Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Ticket{}
	for rows.Next() {
		var t Ticket
		var raw []byte
		if err := rows.Scan(&t.ID, &t.UserID, &t.EventID, &t.TicketTypeID, &t.Quantity,
			&t.TotalPrice, &t.PurchaseDate, &t.ReferenceNumber, &raw); err != nil {
			return nil, err
		}
		t.PaymentDetails = json.RawMessage(raw)
		out = append(out, t)
	}
	return out, rows.Err()
}

// TicketSale is the joined row used by the sales export: a ticket with the
// purchaser, event and ticket-type names resolved.  Deleted events or ticket
// types show up as empty names rather than dropping the sale.
type TicketSale struct {
	TicketID        uint64
	ReferenceNumber string
	UserID          uint64
	UserName        string
	EventID         uint64
	EventName       string
	TicketTypeID    uint64
	TicketTypeName  string
	Price           decimal.Decimal
	PurchaseDate    time.Time
}

// ListSales returns every ticket joined with user, event and ticket-type
// display fields for the CSV export.
func (r *TicketRepo) ListSales(ctx context.Context) ([]TicketSale, error) {
	const q = `SELECT t.id, t.reference_number, t.user_id, COALESCE(u.full_name, ''),
	                  t.event_id, COALESCE(e.title, ''),
	                  t.ticket_type_id, COALESCE(tt.name, ''), COALESCE(tt.price, 0),
	                  t.purchase_date
	           FROM tickets t
	           LEFT JOIN users u ON u.id = t.user_id
	           LEFT JOIN events e ON e.id = t.event_id
	           LEFT JOIN ticket_types tt ON tt.id = t.ticket_type_id
	           ORDER BY t.purchase_date DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TicketSale{}
	for rows.Next() {
		var s TicketSale
		if err := rows.Scan(&s.TicketID, &s.ReferenceNumber, &s.UserID, &s.UserName,
			&s.EventID, &s.EventName, &s.TicketTypeID, &s.TicketTypeName, &s.Price, &s.PurchaseDate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
