// Package goOTT issues and redeems one-time tokens: short-lived, single-use
// hand-off tokens that let an authenticated session be redeemed exactly once,
// either to re-confirm identity or to mint a successor session on another
// device or origin.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goOTT is the public surface. It exposes [Engine], [Builder], [Config], the collaborator
// interfaces ([VerificationStore], [SessionStore], [UserProvider], [SessionTransport]) and
// value types. Flow orchestration and audit dispatch live under internal/ and are never
// exported. Store adapters live in verification, session and store/; HTTP wiring lives in
// transport/httpapi and middleware.
//
// # What this package must NOT do
//
//   - Retry store operations or reorder the redeem phases.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports goOTT (no import cycles).
//
// # Concurrency contract
//
// Of any number of concurrent [Engine.VerifyOneTimeToken] calls for the same token, at
// most one succeeds. The guarantee is delegated to the store's compare-and-delete.
package goOTT
