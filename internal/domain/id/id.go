// Package id issues member identifiers: short, URL-safe, collision-resistant
// random strings. Generation is stateless and never blocks; collision against
// the record store is detected (and retried) by the caller, never silently
// overwritten.
package id

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated identifier.
const Length = 22

// New returns a fresh identifier: 128 random bits in raw-URL base64.
// POST: len(result) == Length; result contains only [A-Za-z0-9_-]
func New() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])
}
