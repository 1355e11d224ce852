package verification

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for an identifier or a
	// delete removed nothing.
	ErrNotFound = errors.New("verification record not found")
	// ErrDuplicate is returned when a record already exists for an identifier.
	ErrDuplicate = errors.New("verification identifier already exists")
	// ErrRedisUnavailable wraps any Redis command or connection failure.
	ErrRedisUnavailable = errors.New("verification redis unavailable")
)

// Record defines a public type used by goOTT APIs.
//
// Record instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Record struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Value      string    `json:"value"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the record is expired at now. A record whose
// expiry equals now is expired.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
