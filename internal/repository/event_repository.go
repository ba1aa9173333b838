// Package repository contains data access logic for the event catalog. This
// file defines the Event model and repository methods for events. An Event is
// a scheduled club night owned by an organizer; ticket types and performers
// hang off it by event_id.
// NOTE: the date column is DATETIME stored in UTC; parseTime=true in the DSN
// turns it into time.Time.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event represents a row of the events table.  Tags are stored as a JSON
// array in MySQL and unpacked on scan.
type Event struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"imageUrl"`
	Date          time.Time `json:"date"`
	Location      string    `json:"location"`
	Address       string    `json:"address"`
	OrganizedByID uint64    `json:"organizedById"`
	Featured      bool      `json:"featured"`
	Tags          []string  `json:"tags"`
}

// EventRepo manages persistence for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventCols = "id, title, description, image_url, date, location, address, organized_by_id, featured, tags"

func scanEvent(scan func(dest ...interface{}) error) (Event, error) {
	var e Event
	var rawTags []byte
	err := scan(&e.ID, &e.Title, &e.Description, &e.ImageURL, &e.Date,
		&e.Location, &e.Address, &e.OrganizedByID, &e.Featured, &rawTags)
	if err != nil {
		return e, err
	}
	if len(rawTags) > 0 {
		if err := json.Unmarshal(rawTags, &e.Tags); err != nil {
			return e, err
		}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e, nil
}

// Create inserts a new event and assigns the generated ID back to the
// struct.  Tags are marshalled to a JSON array; a nil slice is stored as [].
func (r *EventRepo) Create(ctx context.Context, e *Event) error {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	const q = `INSERT INTO events (title, description, image_url, date, location, address, organized_by_id, featured, tags)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.ImageURL, e.Date.UTC(),
		e.Location, e.Address, e.OrganizedByID, e.Featured, rawTags)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID retrieves an event by its ID.  Returns ErrNotFound when there is
// no matching row.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (Event, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventCols+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// List returns all events ordered by date.
func (r *EventRepo) List(ctx context.Context) ([]Event, error) {
	return r.list(ctx, "SELECT "+eventCols+" FROM events ORDER BY date")
}

// ListFeatured returns only events flagged as featured.
func (r *EventRepo) ListFeatured(ctx context.Context) ([]Event, error) {
	return r.list(ctx, "SELECT "+eventCols+" FROM events WHERE featured = 1 ORDER BY date")
}

// ListByOrganizer returns the events owned by one organizer.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]Event, error) {
	return r.list(ctx, "SELECT "+eventCols+" FROM events WHERE organized_by_id = ? ORDER BY date", organizerID)
}

func (r *EventRepo) list(ctx context.Context, query string, args ...interface{}) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update overwrites the mutable fields of an event and returns the fresh
// row.  Returns ErrNotFound when the event does not exist.
func (r *EventRepo) Update(ctx context.Context, e *Event) error {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	const q = `UPDATE events SET title=?, description=?, image_url=?, date=?, location=?, address=?, featured=?, tags=?
	           WHERE id=?`
	if _, err := r.db.ExecContext(ctx, q, e.Title, e.Description, e.ImageURL, e.Date.UTC(),
		e.Location, e.Address, e.Featured, rawTags, e.ID); err != nil {
		return err
	}
	// RowsAffected is 0 both for a missing row and a no-op update, so the
	// re-read does double duty: it distinguishes the two and returns
	// DB-canonical values.
	fresh, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = fresh
	return nil
}

// Delete removes an event.  Tickets referencing it are left in place; the
// confirmation lookup treats a missing event as an overall not-found.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
