package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partier/partier/internal/repository"
)

// fakeDevice counts acquire/release calls and can fail on demand.
type fakeDevice struct {
	acquired   int
	released   int
	failNext   bool
	acquireErr error
}

func (d *fakeDevice) Acquire() error {
	if d.failNext {
		d.failNext = false
		if d.acquireErr == nil {
			d.acquireErr = errors.New("camera busy")
		}
		return d.acquireErr
	}
	d.acquired++
	return nil
}

func (d *fakeDevice) Release() { d.released++ }

func lookupFor(tickets map[string]repository.Ticket) Lookup {
	return func(_ context.Context, code string) (repository.Ticket, error) {
		t, ok := tickets[code]
		if !ok {
			return repository.Ticket{}, repository.ErrNotFound
		}
		return t, nil
	}
}

func TestValidScanFlow(t *testing.T) {
	future := time.Now().Add(time.Hour)
	known := repository.Ticket{
		ID:              1,
		Quantity:        2,
		ReferenceNumber: "TIX12345",
		PurchaseDate:    future,
	}
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(map[string]repository.Ticket{"TIX12345": known}))

	require.NoError(t, s.Start())
	assert.Equal(t, StateScanning, s.State())
	assert.Equal(t, 1, dev.acquired)

	require.NoError(t, s.Decode("TIX12345"))
	assert.Equal(t, StateDecoded, s.State())
	assert.Equal(t, 1, dev.released, "device must be released when scanning suspends")

	st, err := s.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateValid, st)

	got, ok := s.Ticket()
	require.True(t, ok)
	assert.Equal(t, "TIX12345", got.ReferenceNumber)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, future, got.PurchaseDate)

	s.Close()
	assert.Equal(t, 1, dev.released, "no device held in a terminal state")
}

func TestUnknownCodeIsInvalid(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(nil))

	require.NoError(t, s.Start())
	require.NoError(t, s.Decode("TIX00000"))

	st, err := s.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, st)

	_, ok := s.Ticket()
	assert.False(t, ok)
}

func TestLookupErrorIsInvalid(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, func(context.Context, string) (repository.Ticket, error) {
		return repository.Ticket{}, errors.New("connection refused")
	})
	require.NoError(t, s.Start())
	require.NoError(t, s.Decode("TIX12345"))

	st, err := s.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, st)
}

func TestPurchaseDateRule(t *testing.T) {
	// A ticket whose purchase timestamp is already in the past scans as
	// invalid, even though the event may be in the future.  This pins the
	// shipped comparison; changing it to the event date must update this
	// test deliberately.
	past := repository.Ticket{ReferenceNumber: "TIX11111", PurchaseDate: time.Now().Add(-time.Minute)}
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(map[string]repository.Ticket{"TIX11111": past}))

	require.NoError(t, s.Start())
	require.NoError(t, s.Decode("TIX11111"))
	st, err := s.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, st)

	assert.True(t, Expired(past, time.Now()))
	assert.False(t, Expired(repository.Ticket{PurchaseDate: time.Now().Add(time.Hour)}, time.Now()))
}

func TestEmptyPayloadKeepsScanning(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(nil))
	require.NoError(t, s.Start())

	require.NoError(t, s.Decode(""))
	assert.Equal(t, StateScanning, s.State())
	assert.Equal(t, 0, dev.released)
}

func TestScanAgainReacquiresDevice(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(nil))
	require.NoError(t, s.Start())
	require.NoError(t, s.Decode("TIX00000"))
	_, err := s.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, s.State())

	require.NoError(t, s.ScanAgain())
	assert.Equal(t, StateScanning, s.State())
	assert.Equal(t, 2, dev.acquired)

	// A fresh decode works after the reset.
	require.NoError(t, s.Decode("TIX00000"))
	assert.Equal(t, StateDecoded, s.State())
}

func TestAcquireFailureStaysScanning(t *testing.T) {
	dev := &fakeDevice{failNext: true}
	s := NewSession(dev, lookupFor(nil))

	err := s.Start()
	require.Error(t, err)
	assert.Equal(t, StateScanning, s.State())

	// Retry succeeds once the device frees up.
	require.NoError(t, s.Start())
	assert.Equal(t, 1, dev.acquired)
}

func TestBadTransitions(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(nil))
	require.NoError(t, s.Start())

	_, err := s.Validate(context.Background())
	assert.ErrorIs(t, err, ErrBadTransition) // nothing decoded yet

	assert.ErrorIs(t, s.ScanAgain(), ErrBadTransition) // not in a terminal state

	require.NoError(t, s.Decode("TIX12345"))
	assert.ErrorIs(t, s.Decode("TIX12345"), ErrBadTransition) // already decoded
}

func TestCloseIsIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	s := NewSession(dev, lookupFor(nil))
	require.NoError(t, s.Start())

	s.Close()
	s.Close()
	assert.Equal(t, 1, dev.released)
}
