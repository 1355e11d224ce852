// Package jwt signs and verifies session assertions: short-lived JWTs that
// carry a session token to clients which authenticate with a bearer header
// instead of a cookie.
package jwt
