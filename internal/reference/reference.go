// Package reference generates the human-facing ticket codes printed on
// confirmations and encoded into QR payloads.
package reference

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
)

// Prefix is the fixed lead-in of every reference number.
const Prefix = "TIX"

// pattern matches a complete well-formed reference number.
var pattern = regexp.MustCompile(`^TIX\d{5}$`)

// New returns a reference of the form TIX followed by five decimal digits
// (TIX10000 .. TIX99999).  Uniqueness is NOT guaranteed by construction,
// the keyspace is only 90000 values, so the tickets table enforces it with a
// unique index and issuance retries on collision.
func New() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 90000
	return fmt.Sprintf("%s%d", Prefix, 10000+n), nil
}

// Valid reports whether s is a well-formed reference number.  Used to
// reject garbage scanner payloads before hitting the database.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
