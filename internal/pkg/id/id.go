package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time, which the otps table relies on: otp_id is the sort key, so a
// descending query returns the most recently issued record first.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
