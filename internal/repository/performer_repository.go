package repository

import (
	"context"
	"database/sql"
)

// Performer is display metadata for an act booked on an event's lineup.
type Performer struct {
	ID          uint64 `json:"id"`
	EventID     uint64 `json:"eventId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Time        string `json:"time"`
	IsHeadliner bool   `json:"isHeadliner"`
}

// PerformerRepo manages persistence for performers.
type PerformerRepo struct {
	db *sql.DB
}

// NewPerformerRepo constructs a PerformerRepo with the given DB handle.
func NewPerformerRepo(db *sql.DB) *PerformerRepo { return &PerformerRepo{db: db} }

// Create inserts a performer and assigns the generated ID back to the struct.
func (r *PerformerRepo) Create(ctx context.Context, p *Performer) error {
	const q = `INSERT INTO performers (event_id, name, image_url, time, is_headliner) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.EventID, p.Name, p.ImageURL, p.Time, p.IsHeadliner)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// ListByEvent returns the lineup for an event, headliners first.
func (r *PerformerRepo) ListByEvent(ctx context.Context, eventID uint64) ([]Performer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, name, image_url, time, is_headliner
		 FROM performers WHERE event_id = ? ORDER BY is_headliner DESC, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Performer{}
	for rows.Next() {
		var p Performer
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.ImageURL, &p.Time, &p.IsHeadliner); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
