// Package scanner implements the door-entry scan session: a small state
// machine driving a code-reading device through
// scanning -> decoded -> valid|invalid -> scanning.  The device handle is
// released the moment a payload is decoded and re-acquired only on an
// explicit scan-again, so a session never holds the camera while an
// operator is looking at a result.
package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/partier/partier/internal/repository"
)

// State names the scan session states.
type State string

const (
	StateScanning State = "scanning" // device active, awaiting a payload
	StateDecoded  State = "decoded"  // payload captured, device released
	StateValid    State = "valid"    // terminal display state
	StateInvalid  State = "invalid"  // terminal display state
)

// ErrBadTransition is returned when an operation is called in a state that
// does not allow it.
var ErrBadTransition = errors.New("operation not allowed in current state")

// Device is a code-reading input source (camera, USB scanner).  Acquire
// may fail when the hardware is busy or missing; Release must be safe to
// call regardless.
type Device interface {
	Acquire() error
	Release()
}

// Lookup resolves a decoded payload to a ticket.  repository.ErrNotFound
// means no such ticket; any other error is treated the same way by the
// validation policy.
type Lookup func(ctx context.Context, code string) (repository.Ticket, error)

// Check applies the entry policy to a decoded payload: the ticket must
// exist and its timestamp must not be in the past.  Lookup errors other
// than not-found also yield StateInvalid; the operator sees one "invalid
// ticket" outcome either way.
func Check(ctx context.Context, lookup Lookup, code string, now time.Time) (State, repository.Ticket, error) {
	t, err := lookup(ctx, code)
	if err != nil {
		return StateInvalid, repository.Ticket{}, err
	}
	if Expired(t, now) {
		return StateInvalid, t, nil
	}
	return StateValid, t, nil
}

// Expired reports whether a ticket no longer admits entry.  The comparison
// is against the purchase timestamp, not the event date, matching the
// behavior shipped in production.
func Expired(t repository.Ticket, now time.Time) bool {
	return t.PurchaseDate.Before(now)
}

// Session is one operator's scan loop.  All methods are safe for
// concurrent use; the zero value is not usable, construct with NewSession.
type Session struct {
	mu       sync.Mutex
	state    State
	device   Device
	lookup   Lookup
	acquired bool
	code     string
	ticket   repository.Ticket
	now      func() time.Time
}

// NewSession builds a session in the scanning state.  The device is not
// touched until Start.
func NewSession(device Device, lookup Lookup) *Session {
	return &Session{
		state:  StateScanning,
		device: device,
		lookup: lookup,
		now:    time.Now,
	}
}

// Start acquires the device.  On failure the session stays in the scanning
// state and the error is surfaced so the operator can retry.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScanning {
		return ErrBadTransition
	}
	if s.acquired {
		return nil
	}
	if err := s.device.Acquire(); err != nil {
		return err
	}
	s.acquired = true
	return nil
}

// Decode feeds a decoded payload into the session.  An empty payload is
// ignored (the device keeps scanning).  A non-empty payload suspends
// scanning: the device is released and the session moves to decoded.
func (s *Session) Decode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScanning {
		return ErrBadTransition
	}
	if code == "" {
		return nil
	}
	s.releaseLocked()
	s.code = code
	s.state = StateDecoded
	return nil
}

// Validate looks up the captured payload and settles the session into
// valid or invalid.
func (s *Session) Validate(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDecoded {
		return s.state, ErrBadTransition
	}
	st, t, _ := Check(ctx, s.lookup, s.code, s.now())
	s.state = st
	if st == StateValid {
		s.ticket = t
	}
	return s.state, nil
}

// ScanAgain returns from a terminal state to scanning and re-acquires the
// device.  On acquisition failure the session is back in scanning with no
// device, mirroring Start's failure mode.
func (s *Session) ScanAgain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateValid && s.state != StateInvalid {
		return ErrBadTransition
	}
	s.state = StateScanning
	s.code = ""
	s.ticket = repository.Ticket{}
	if err := s.device.Acquire(); err != nil {
		return err
	}
	s.acquired = true
	return nil
}

// Close releases the device.  Required on every exit path; calling it
// twice is harmless.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
}

func (s *Session) releaseLocked() {
	if s.acquired {
		s.device.Release()
		s.acquired = false
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ticket returns the validated ticket.  The second value is false unless
// the session is in the valid state.
func (s *Session) Ticket() (repository.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateValid {
		return repository.Ticket{}, false
	}
	return s.ticket, true
}
