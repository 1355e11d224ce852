// Package verification provides the generic verification record model and a
// Redis-backed record store with single-winner deletion.
//
// # Record lifecycle
//
// A [Record] is written once, read by identifier, and removed by
// [RedisStore.DeleteVerification]. Records are never updated in place.
// Deletion compares the stored record ID before removing the key, so of
// several callers racing to delete the same record exactly one observes
// success and the rest receive [ErrNotFound].
//
// # Binary encoding
//
// Records are stored as a versioned binary blob. The identifier is the key
// and is not repeated inside the blob.
//
// # What this package must NOT do
//
//   - Import goOTT (no upward imports).
//   - Interpret identifiers or decide whether a record is expired.
package verification
