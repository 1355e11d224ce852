// Package session provides the session and user models shared by goOTT stores,
// a Redis-backed session store, and compact binary session encoding.
//
// # Binary encoding
//
// Sessions are stored in Redis as a versioned binary blob keyed by the durable
// session token. The token itself is the key and is not repeated in the blob.
//
// # Architecture boundaries
//
// This package owns the [RedisStore] and the [Session] / [User] models. It does
// NOT mint tokens, decide when a successor session is issued, or talk to the
// transport layer; those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goOTT, jwt, or middleware (no upward imports).
//   - Perform application-level authorization decisions.
package session
