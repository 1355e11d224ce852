// Package memory provides process-local implementations of the goOTT store
// collaborators. Every operation is serialised by a mutex, which makes
// DeleteVerification a natural compare-and-delete.
//
// The stores are intended for tests, examples and single-instance
// deployments; nothing survives a restart.
package memory
