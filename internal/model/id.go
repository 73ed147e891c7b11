package model

import (
	"github.com/oklog/ulid/v2"
)

// NewID returns a new ULID string. IDs generated in one process are
// strictly increasing, so they also order records created in the same
// microsecond.
func NewID() string {
	return ulid.Make().String()
}
