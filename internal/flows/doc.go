// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunGenerateOneTimeToken, RunVerifyOneTimeToken) accepts a
// typed dependency struct and returns results without side-effects beyond
// those dependencies. This keeps the Engine type thin and lets every phase of
// the redeem state machine be tested with in-process fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the verification store, session store,
// user provider, session transport, audit dispatcher, and metrics. They do NOT
// own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goOTT (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
package flows
