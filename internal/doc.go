// Package internal contains helper utilities that are intentionally private to goOTT,
// chiefly secure random token generation and token digests.
//
// # Sub-packages
//
//   - flows — pure-function orchestrators for the generate and redeem operations
//   - audit — buffered audit event dispatch and the bundled sinks
//
// # What this package must NOT do
//
//   - Export types that appear in the public goOTT API.
//   - Be imported by any package outside the goOTT module.
package internal
