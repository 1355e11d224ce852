package goOTT

import (
	"errors"
	"net/http"
)

var (
	// ErrForbidden is returned when a network-originated call reaches an operation
	// that has been restricted to server-side callers.
	ErrForbidden = errors.New("client request forbidden")
	// ErrUnauthenticated is returned when an operation requires a current session and none was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidInput is returned for empty or whitespace-only tokens.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidToken is returned when no record exists for the presented token,
	// including when a concurrent redeemer consumed it first.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the record existed but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionNotFound is returned when the session a token was bound to no longer resolves.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenGeneration is returned when the token generator fails, yields a blank
	// token, or the token collides with an outstanding record.
	ErrTokenGeneration = errors.New("token generation failed")
	// ErrTokenStorage is returned when the custom hasher fails to transform a token.
	ErrTokenStorage = errors.New("token storage transform failed")
	// ErrStoreUnavailable wraps verification, session and user store failures other
	// than not-found.
	ErrStoreUnavailable = errors.New("verification store unavailable")
	// ErrSessionCreation is returned when the successor session cannot be minted or saved.
	ErrSessionCreation = errors.New("session creation failed")
	// ErrSessionTransport is returned when the configured [SessionTransport] fails to
	// establish the successor session. The token is already consumed.
	ErrSessionTransport = errors.New("session transport failed")
	// ErrEngineNotReady is returned by a nil Engine or one built without its required stores.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorClass groups engine errors into the caller-facing failure classes.
type ErrorClass string

const (
	// ClassBadRequest covers malformed, unknown, expired or orphaned tokens.
	ClassBadRequest ErrorClass = "BAD_REQUEST"
	// ClassForbidden covers calls rejected by origin policy.
	ClassForbidden ErrorClass = "FORBIDDEN"
	// ClassUnauthorized covers calls made without a current session.
	ClassUnauthorized ErrorClass = "UNAUTHORIZED"
	// ClassInternal covers store, callback and transport failures.
	ClassInternal ErrorClass = "INTERNAL_SERVER_ERROR"
)

// ClassOf maps an error returned by the Engine to its failure class.
// A nil error has no class and yields the empty string.
func ClassOf(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrForbidden):
		return ClassForbidden
	case errors.Is(err, ErrUnauthenticated):
		return ClassUnauthorized
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrSessionNotFound):
		return ClassBadRequest
	default:
		return ClassInternal
	}
}

// HTTPStatus returns the response status used by HTTP adapters for the class.
func (c ErrorClass) HTTPStatus() int {
	switch c {
	case ClassBadRequest:
		return http.StatusBadRequest
	case ClassForbidden:
		return http.StatusForbidden
	case ClassUnauthorized:
		return http.StatusUnauthorized
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Message returns a client-safe message for err. Internal failures never
// expose the wrapped dependency error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	case errors.Is(err, ErrUnauthenticated):
		return ErrUnauthenticated.Error()
	case errors.Is(err, ErrInvalidInput):
		return ErrInvalidInput.Error()
	case errors.Is(err, ErrInvalidToken):
		return ErrInvalidToken.Error()
	case errors.Is(err, ErrTokenExpired):
		return ErrTokenExpired.Error()
	case errors.Is(err, ErrSessionNotFound):
		return ErrSessionNotFound.Error()
	default:
		return "internal error"
	}
}
