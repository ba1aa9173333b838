// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketIssuedEvent is published when a ticket purchase commits.  It carries
// enough denormalized detail for downstream consumers to log, notify, or
// feed analytics without querying the primary database.
type TicketIssuedEvent struct {
	TicketID        uint64 `json:"ticket_id"`
	ReferenceNumber string `json:"reference_number"`
	UserID          uint64 `json:"user_id"`
	EventID         uint64 `json:"event_id"`
	EventTitle      string `json:"event_title"`
	TicketTypeID    uint64 `json:"ticket_type_id"`
	TicketTypeName  string `json:"ticket_type_name"`
	Quantity        int    `json:"quantity"`
	TotalPrice      string `json:"total_price"`
	PurchasedAt     string `json:"purchased_at"`
}
