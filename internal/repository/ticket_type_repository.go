package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// TicketType represents a priced admission category for an event with its
// own inventory counter.  Price is a DECIMAL(10,2) column and is carried as
// a decimal.Decimal to avoid float drift in pricing math.
type TicketType struct {
	ID          uint64          `json:"id"`
	EventID     uint64          `json:"eventId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   int             `json:"available"`
}

// TicketTypeRepo manages persistence for ticket_types.
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo { return &TicketTypeRepo{db: db} }

const ticketTypeCols = "id, event_id, name, description, price, available"

// Create inserts a new ticket type and assigns the generated ID back to the
// struct.
func (r *TicketTypeRepo) Create(ctx context.Context, t *TicketType) error {
	const q = `INSERT INTO ticket_types (event_id, name, description, price, available) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.EventID, t.Name, t.Description, t.Price, t.Available)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID retrieves a ticket type by its ID.  Returns ErrNotFound when there
// is no matching row.
func (r *TicketTypeRepo) GetByID(ctx context.Context, id uint64) (TicketType, error) {
	var t TicketType
	err := r.db.QueryRowContext(ctx, "SELECT "+ticketTypeCols+" FROM ticket_types WHERE id = ?", id).
		Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.Price, &t.Available)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// ListByEvent returns every ticket type offered for an event.
func (r *TicketTypeRepo) ListByEvent(ctx context.Context, eventID uint64) ([]TicketType, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ticketTypeCols+" FROM ticket_types WHERE event_id = ? ORDER BY id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TicketType{}
	for rows.Next() {
		var t TicketType
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &t.Price, &t.Available); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update overwrites the mutable fields of a ticket type and re-reads the
// row.  Organizers use this to edit price, copy and inventory; purchases
// never go through here (they decrement inside the issuance transaction).
func (r *TicketTypeRepo) Update(ctx context.Context, t *TicketType) error {
	const q = `UPDATE ticket_types SET name=?, description=?, price=?, available=? WHERE id=?`
	if _, err := r.db.ExecContext(ctx, q, t.Name, t.Description, t.Price, t.Available, t.ID); err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = fresh
	return nil
}
