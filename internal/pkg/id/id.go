// Package id generates ULID identifiers for every stored entity.
package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh ULID string. ULIDs sort lexicographically by creation
// time, which is what lets notification queries return newest-first without a
// separate timestamp sort key.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
