// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios: ErrNotFound maps to
// HTTP 404, ErrSoldOut signals that a conditional inventory decrement
// affected no rows, and ErrReferenceExhausted reports that a ticket insert
// could not allocate a unique reference number within the bounded retries.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrSoldOut is returned when a purchase requests more units than a ticket
// type has available.  The decrement is conditional, so two concurrent
// purchases of the last unit cannot both succeed.  Handlers should translate
// this into an HTTP 409 response.
var ErrSoldOut = errors.New("ticket type sold out")

// ErrReferenceExhausted is returned when every reference-number generation
// attempt collided with an existing ticket.  It is deliberately distinct
// from a generic insert failure so callers can report an allocation problem
// rather than invalid data.
var ErrReferenceExhausted = errors.New("could not allocate reference number")
