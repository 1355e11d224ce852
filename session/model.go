package session

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no live session exists for a token.
	ErrNotFound = errors.New("session not found")
	// ErrUserNotFound is returned by user providers when the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrRedisUnavailable wraps any Redis command or connection failure.
	ErrRedisUnavailable = errors.New("session redis unavailable")
)

// Session defines a public type used by goOTT APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Live reports whether the session has not yet expired at now.
func (s *Session) Live(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// User defines a public type used by goOTT APIs.
//
// User instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}
